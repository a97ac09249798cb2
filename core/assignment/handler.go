package assignment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avelkova/studiofit/api/background"
	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
)

// HandleAssign binds a client to a trainer. At most one trainer may be
// active per client: a different active trainer is a conflict, the same
// one makes the call idempotent.
func HandleAssign(db *sqlx.DB, bg *background.Background, notifier Notifier) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var an AssignmentNew
		if err := web.Decode(w, r, &an); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding assignment: %w", err))
		}

		if err := validate.Check(an); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if err := validate.CheckID(an.ClientID); err != nil {
			return weberr.BadRequest(err)
		}
		if err := validate.CheckID(an.TrainerID); err != nil {
			return weberr.BadRequest(err)
		}

		client, err := user.Fetch(ctx, db, an.ClientID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching client[%s]: %w", an.ClientID, err)
		}

		trainer, err := user.Fetch(ctx, db, an.TrainerID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching trainer[%s]: %w", an.TrainerID, err)
		}

		if trainer.Role != claims.RoleTrainer {
			err := errors.New("assignee is not a trainer")
			return weberr.Unprocessable(err, err.Error())
		}

		var asg Assignment
		var created bool
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			cur, err := FetchActiveByClient(ctx, tx, an.ClientID)
			if err == nil {
				if cur.TrainerID == an.TrainerID {
					asg = cur
					return nil
				}
				return weberr.Conflict(
					fmt.Errorf("client[%s] already has trainer[%s]", an.ClientID, cur.TrainerID),
					"the client already has an active trainer",
				)
			}
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}

			now := time.Now().UTC()
			asg = Assignment{
				ID:         validate.GenerateID(),
				ClientID:   an.ClientID,
				TrainerID:  an.TrainerID,
				Status:     StatusActive,
				AssignedBy: clm.UserID,
				StartedAt:  now,
				UpdatedAt:  now,
			}

			if err := Create(ctx, tx, asg); err != nil {
				if database.IsUniqueViolation(err, "trainer_assignments_client_active_idx") {
					return weberr.Conflict(err, "the client already has an active trainer")
				}
				return err
			}

			created = true
			return nil
		})
		if err != nil {
			return err
		}

		if created {
			bg.Add(func() error {
				msg := fmt.Sprintf("%s is now your trainer.", trainer.Name)
				return notifier.SendAssignmentNotice(client.Email, client.Name, msg)
			})
			bg.Add(func() error {
				msg := fmt.Sprintf("%s was assigned to you as a client.", client.Name)
				return notifier.SendAssignmentNotice(trainer.Email, trainer.Name, msg)
			})

			return web.Respond(ctx, w, asg, http.StatusCreated)
		}

		return web.Respond(ctx, w, asg, http.StatusOK)
	}
}

// HandleEnd closes an active assignment, keeping the row as history.
func HandleEnd(db *sqlx.DB, bg *background.Background, notifier Notifier) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		asg, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching assignment[%s]: %w", id, err)
		}

		if err := End(ctx, db, id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.Conflict(err, "the assignment has already ended")
			}
			return fmt.Errorf("ending assignment[%s]: %w", id, err)
		}

		if client, err := user.Fetch(ctx, db, asg.ClientID); err == nil {
			bg.Add(func() error {
				return notifier.SendAssignmentNotice(client.Email, client.Name, "Your trainer assignment has ended.")
			})
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleListByClient(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if !claims.IsAdmin(ctx) && !claims.IsUser(ctx, id) {
			return weberr.Forbidden(errors.New("not allowed to view these assignments"))
		}

		asgs, err := ListByClient(ctx, db, id)
		if err != nil {
			return fmt.Errorf("listing assignments of client[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, asgs, http.StatusOK)
	}
}

func HandleListByTrainer(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if !claims.IsAdmin(ctx) && !claims.IsUser(ctx, id) {
			return weberr.Forbidden(errors.New("not allowed to view these assignments"))
		}

		asgs, err := ListByTrainer(ctx, db, id)
		if err != nil {
			return fmt.Errorf("listing assignments of trainer[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, asgs, http.StatusOK)
	}
}
