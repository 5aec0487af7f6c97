package store

import "github.com/ludwig-forum/ludwig/internal/ludwigerr"

// CreateApplication records a registration application awaiting admin
// review, for instances with registration_application_required (§3
// Application, §6 "registration_application_required").
func (w *WriteTxn) CreateApplication(userID uint64, ip, userAgent, text string) (*Application, error) {
	id, err := nextID(w.txn)
	if err != nil {
		return nil, ludwigerr.Wrap(ludwigerr.StorageError, "store.CreateApplication", err)
	}
	app := &Application{ID: id, UserID: userID, IP: ip, UserAgent: userAgent, Text: text}
	if err := setEntity(w, nsApplication, id, app, "store.CreateApplication"); err != nil {
		return nil, err
	}
	return app, nil
}

// DeleteApplication removes an application once an admin has approved or
// rejected it, tolerating an already-absent application.
func (w *WriteTxn) DeleteApplication(id uint64) error {
	if err := w.deleteRaw(entityKey(nsApplication, id)); err != nil {
		return ludwigerr.Wrap(ludwigerr.StorageError, "store.DeleteApplication", err)
	}
	return nil
}

// ApproveApplication flips the applicant's LocalUser.Approved bit and
// removes the application record.
func (w *WriteTxn) ApproveApplication(appID uint64) error {
	app, err := getEntity[Application](w.base, nsApplication, appID, "store.ApproveApplication")
	if err != nil {
		return err
	}
	lu, err := getEntity[LocalUser](w.base, nsLocalUser, app.UserID, "store.ApproveApplication")
	if err != nil {
		return err
	}
	lu.Approved = true
	if err := setEntity(w, nsLocalUser, lu.UserID, lu, "store.ApproveApplication"); err != nil {
		return err
	}
	return w.DeleteApplication(appID)
}

// RejectApplication removes the application without approving the
// applicant's LocalUser.
func (w *WriteTxn) RejectApplication(appID uint64) error {
	return w.DeleteApplication(appID)
}
