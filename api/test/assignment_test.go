package test

import (
	"net/http"
	"testing"

	"github.com/avelkova/studiofit/core/assignment"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/core/user"
)

type assignmentTest struct {
	*TestEnv
}

// createUserOK provisions an account through the admin API.
func (at *assignmentTest) createUserOK(t *testing.T, name, email, role string) user.User {
	t.Helper()

	if err := at.Login(at.AdminEmail, at.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer at.Logout()

	in := user.UserNew{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        "a-password",
		PasswordConfirm: "a-password",
	}

	var usr user.User
	w, err := at.Do(http.MethodPost, "/users", in, &usr)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create user: status code %s", w.Status)
	}
	return usr
}

func (at *assignmentTest) currentUserOK(t *testing.T) user.User {
	t.Helper()

	if err := at.Login(at.UserEmail, at.UserPass); err != nil {
		t.Fatal(err)
	}
	defer at.Logout()

	var usr user.User
	w, err := at.Do(http.MethodGet, "/users/current", nil, &usr)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't fetch current user: status code %s", w.Status)
	}
	return usr
}

func (at *assignmentTest) assign(t *testing.T, clientID, trainerID string, out any) *http.Response {
	t.Helper()

	in := assignment.AssignmentNew{ClientID: clientID, TrainerID: trainerID}
	w, err := at.Do(http.MethodPost, "/assignments", in, out)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestAssignment(t *testing.T) {
	env, err := NewTestEnv(t, "assignment_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	at := &assignmentTest{env}

	client := at.currentUserOK(t)
	trainer1 := at.createUserOK(t, "Trainer One", "trainer1@test.com", claims.RoleTrainer)
	trainer2 := at.createUserOK(t, "Trainer Two", "trainer2@test.com", claims.RoleTrainer)

	if err := at.Login(at.AdminEmail, at.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer at.Logout()

	var asg assignment.Assignment
	if w := at.assign(t, client.ID, trainer1.ID, &asg); w.StatusCode != http.StatusCreated {
		t.Fatalf("can't assign trainer: status code %s", w.Status)
	}

	// Repeating the same pairing changes nothing.
	var again assignment.Assignment
	if w := at.assign(t, client.ID, trainer1.ID, &again); w.StatusCode != http.StatusOK {
		t.Fatalf("repeated assignment should be a no-op: status code %s", w.Status)
	}
	if again.ID != asg.ID {
		t.Fatalf("repeated assignment produced a new row: %s vs %s", again.ID, asg.ID)
	}

	// A second trainer while the first is active is a conflict.
	if w := at.assign(t, client.ID, trainer2.ID, nil); w.StatusCode != http.StatusConflict {
		t.Fatalf("double assignment should conflict: status code %s", w.Status)
	}

	// Only trainer accounts can be assigned.
	if w := at.assign(t, trainer1.ID, client.ID, nil); w.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("assigning a non-trainer should be rejected: status code %s", w.Status)
	}

	w, err := at.Do(http.MethodPost, "/assignments/"+asg.ID+"/end", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't end assignment: status code %s", w.Status)
	}

	w, err = at.Do(http.MethodPost, "/assignments/"+asg.ID+"/end", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusConflict {
		t.Fatalf("ending twice should conflict: status code %s", w.Status)
	}

	// With the first assignment ended the client is free again.
	if w := at.assign(t, client.ID, trainer2.ID, nil); w.StatusCode != http.StatusCreated {
		t.Fatalf("can't reassign trainer: status code %s", w.Status)
	}

	var history []assignment.Assignment
	w, err = at.Do(http.MethodGet, "/clients/"+client.ID+"/assignments", nil, &history)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK || len(history) != 2 {
		t.Fatalf("expected 2 assignments in history, got status %s with %d rows", w.Status, len(history))
	}

	var byTrainer []assignment.Assignment
	w, err = at.Do(http.MethodGet, "/trainers/"+trainer2.ID+"/assignments", nil, &byTrainer)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK || len(byTrainer) != 1 {
		t.Fatalf("expected 1 assignment for the trainer, got status %s with %d rows", w.Status, len(byTrainer))
	}
	if err := at.Logout(); err != nil {
		t.Fatal(err)
	}

	// Clients see their own history but not someone else's.
	if err := at.Login(at.UserEmail, at.UserPass); err != nil {
		t.Fatal(err)
	}
	defer at.Logout()

	w, err = at.Do(http.MethodGet, "/clients/"+client.ID+"/assignments", nil, &history)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("client can't read own history: status code %s", w.Status)
	}

	w, err = at.Do(http.MethodGet, "/trainers/"+trainer2.ID+"/assignments", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign history should be forbidden: status code %s", w.Status)
	}
}
