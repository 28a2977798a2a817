package service

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/account/repository"
)

var testSecret = []byte("test-secret")

func newTestService(t *testing.T, requireConfirm bool) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccountService(repository.NewAccountRepository(db), testSecret, requireConfirm), mock
}

func expectInsertUser(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec("INSERT INTO users \\(id, email, salt, verifier, confirmed, created_at\\)")
}

func userRow(email string, password string, confirmed bool) *sqlmock.Rows {
	salt := []byte("0123456789abcdef")
	return sqlmock.NewRows([]string{"id", "email", "salt", "verifier", "confirmed", "created_at"}).
		AddRow("user-1", email, salt, deriveVerifier(password, salt), confirmed, time.Now())
}

func TestSignUpIssuesSession(t *testing.T) {
	svc, mock := newTestService(t, false)
	expectInsertUser(mock).WillReturnResult(sqlmock.NewResult(0, 1))

	user, session, err := svc.SignUp("Person@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "person@example.com", user.Email, "email is normalized")
	require.NotNil(t, session)
	assert.Equal(t, user.ID, session.UserID)

	// The issued token restores a session.
	restored := svc.CurrentSession(session.Token)
	require.NotNil(t, restored)
	assert.Equal(t, user.ID, restored.UserID)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t, false)

	var authErr *AuthError
	_, _, err := svc.SignUp("not-an-email", "long enough pw")
	require.Error(t, err)
	assert.True(t, errors.As(err, &authErr))

	_, _, err = svc.SignUp("a@b.com", "short")
	require.Error(t, err)
	assert.True(t, errors.As(err, &authErr))
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, mock := newTestService(t, false)
	expectInsertUser(mock).WillReturnError(&pq.Error{Code: "23505"})

	_, _, err := svc.SignUp("taken@example.com", "correct horse")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Message, "already exists")
}

func TestSignUpWithConfirmationWithholdsSession(t *testing.T) {
	svc, mock := newTestService(t, true)
	expectInsertUser(mock).WillReturnResult(sqlmock.NewResult(0, 1))

	user, session, err := svc.SignUp("new@example.com", "correct horse")
	require.NoError(t, err)
	assert.Nil(t, session, "no session until the email is confirmed")
	assert.False(t, user.Confirmed)
}

func TestLogIn(t *testing.T) {
	svc, mock := newTestService(t, false)
	mock.ExpectQuery("SELECT id, email, salt, verifier, confirmed, created_at FROM users WHERE email = \\$1").
		WithArgs("person@example.com").
		WillReturnRows(userRow("person@example.com", "correct horse", true))

	user, session, err := svc.LogIn("person@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	require.NotNil(t, session)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestLogInWrongPassword(t *testing.T) {
	svc, mock := newTestService(t, false)
	mock.ExpectQuery("SELECT id, email, salt, verifier, confirmed, created_at FROM users WHERE email = \\$1").
		WithArgs("person@example.com").
		WillReturnRows(userRow("person@example.com", "correct horse", true))

	_, _, err := svc.LogIn("person@example.com", "wrong horse")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Invalid email or password.", authErr.Message)
}

func TestLogInUnknownEmail(t *testing.T) {
	svc, mock := newTestService(t, false)
	mock.ExpectQuery("SELECT id, email, salt, verifier, confirmed, created_at FROM users WHERE email = \\$1").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "salt", "verifier", "confirmed", "created_at"}))

	_, _, err := svc.LogIn("ghost@example.com", "whatever pw")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Invalid email or password.", authErr.Message)
}

func TestLogInUnconfirmedEmail(t *testing.T) {
	svc, mock := newTestService(t, true)
	mock.ExpectQuery("SELECT id, email, salt, verifier, confirmed, created_at FROM users WHERE email = \\$1").
		WithArgs("new@example.com").
		WillReturnRows(userRow("new@example.com", "correct horse", false))

	_, _, err := svc.LogIn("new@example.com", "correct horse")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Message, "confirm")
}

func TestCurrentSessionRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t, false)
	assert.Nil(t, svc.CurrentSession(""))
	assert.Nil(t, svc.CurrentSession("not-a-jwt"))
}

func TestAuthChangeCallbacks(t *testing.T) {
	svc, mock := newTestService(t, false)
	mock.ExpectQuery("SELECT id, email, salt, verifier, confirmed, created_at FROM users WHERE email = \\$1").
		WithArgs("person@example.com").
		WillReturnRows(userRow("person@example.com", "correct horse", true))

	type event struct {
		Event   AuthEvent
		Session *SessionToken
	}
	events := make(chan event, 4)
	svc.OnAuthChange(func(ev AuthEvent, s *SessionToken) {
		events <- event{Event: ev, Session: s}
	})

	_, session, err := svc.LogIn("person@example.com", "correct horse")
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedIn, ev.Event)
		require.NotNil(t, ev.Session)
		assert.Equal(t, session.UserID, ev.Session.UserID)
	case <-time.After(time.Second):
		t.Fatal("sign-in event never delivered")
	}

	svc.LogOut()
	select {
	case ev := <-events:
		assert.Equal(t, EventSignedOut, ev.Event)
		assert.Nil(t, ev.Session)
	case <-time.After(time.Second):
		t.Fatal("sign-out event never delivered")
	}

	// Restoring a session also notifies listeners, as on page load.
	restored := svc.CurrentSession(session.Token)
	require.NotNil(t, restored)
	select {
	case ev := <-events:
		assert.Equal(t, EventRestored, ev.Event)
	case <-time.After(time.Second):
		t.Fatal("restore event never delivered")
	}
}
