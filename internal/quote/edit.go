package quote

import (
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
)

// Edit applies fn to a copy of the quote when the status still accepts layer
// changes. Each layer is replaced whole; nothing is merged. A successful edit
// drops any stale draft pricing so the next read recomputes it.
func (q Quote) Edit(now time.Time, fn func(*Quote)) (Quote, error) {
	if !q.Status.IsEditable() {
		return q, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("quote is %s and can no longer be edited", q.Status)).
			WithDetails(map[string]any{"status": q.Status})
	}
	out := q.Clone()
	fn(&out)
	out.Pricing = nil
	out.UpdatedAt = now
	return out, nil
}

func (q Quote) ReplacePatient(p Patient, now time.Time) (Quote, error) {
	return q.Edit(now, func(out *Quote) { out.Patient = p })
}

func (q Quote) ReplaceInsurance(i Insurance, now time.Time) (Quote, error) {
	return q.Edit(now, func(out *Quote) { out.Insurance = i.clone() })
}

func (q Quote) ReplaceExam(l ExamLayer, now time.Time) (Quote, error) {
	return q.Edit(now, func(out *Quote) { out.Exam = ExamLayer{Services: append([]Selection(nil), l.Services...)} })
}

func (q Quote) ReplaceEyeglasses(l EyeglassesLayer, now time.Time) (Quote, error) {
	return q.Edit(now, func(out *Quote) { out.Eyeglasses = l.clone() })
}

func (q Quote) ReplaceContacts(l ContactsLayer, now time.Time) (Quote, error) {
	return q.Edit(now, func(out *Quote) { out.Contacts = l.clone() })
}
