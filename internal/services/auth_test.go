package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/glavox/glavox-backend/internal/logger"
	"github.com/glavox/glavox-backend/internal/repos"
	"github.com/glavox/glavox-backend/internal/requestdata"
	"github.com/glavox/glavox-backend/internal/types"
)

func newTestAuthService(t *testing.T) (AuthService, repos.UserRepo) {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	userTokenRepo := repos.NewUserTokenRepo(db, log)
	svc := NewAuthService(db, log, userRepo, userTokenRepo, nil, "testsecret", time.Hour, 24*time.Hour)
	return svc, userRepo
}

func TestRegisterUserValidation(t *testing.T) {
	cases := []struct {
		name string
		user types.User
	}{
		{name: "missing_email", user: types.User{Password: "pw", FirstName: "A", LastName: "B"}},
		{name: "missing_password", user: types.User{Email: "a@example.com", FirstName: "A", LastName: "B"}},
		{name: "missing_first_name", user: types.User{Email: "a@example.com", Password: "pw", LastName: "B"}},
		{name: "missing_last_name", user: types.User{Email: "a@example.com", Password: "pw", FirstName: "A"}},
		{name: "blank_email", user: types.User{Email: "   ", Password: "pw", FirstName: "A", LastName: "B"}},
	}

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := tc.user
			if err := svc.RegisterUser(ctx, &user); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("RegisterUser error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRegisterUserNormalizesAndHashes(t *testing.T) {
	svc, userRepo := newTestAuthService(t)
	ctx := context.Background()

	user := types.User{
		Email:     "  Someone@Example.COM ",
		Password:  "secretpw",
		FirstName: "  Maya ",
		LastName:  " Rao ",
	}
	if err := svc.RegisterUser(ctx, &user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if user.Email != "someone@example.com" {
		t.Errorf("Email = %q, want lowercased and trimmed", user.Email)
	}
	if user.FirstName != "Maya" || user.LastName != "Rao" {
		t.Errorf("names = %q %q, want trimmed", user.FirstName, user.LastName)
	}
	if user.Password == "secretpw" {
		t.Fatalf("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secretpw")); err != nil {
		t.Errorf("stored password is not a bcrypt hash of the input: %v", err)
	}

	stored, err := userRepo.GetByEmails(ctx, nil, []string{"someone@example.com"})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("found %d users, want 1", len(stored))
	}
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first := types.User{Email: "dup@example.com", Password: "pw", FirstName: "A", LastName: "B"}
	if err := svc.RegisterUser(ctx, &first); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	second := types.User{Email: "Dup@Example.com", Password: "pw", FirstName: "C", LastName: "D"}
	if err := svc.RegisterUser(ctx, &second); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate RegisterUser error = %v, want ErrInvalidInput", err)
	}
}

func TestLoginUserAndTokenContext(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user := types.User{Email: "login@example.com", Password: "secretpw", FirstName: "A", LastName: "B"}
	if err := svc.RegisterUser(ctx, &user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if _, _, err := svc.LoginUser(ctx, "login@example.com", "wrongpw"); err == nil {
		t.Fatalf("login with wrong password succeeded")
	}
	if _, _, err := svc.LoginUser(ctx, "login@example.com", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("login with empty password error = %v, want ErrInvalidInput", err)
	}

	accessToken, refreshToken, err := svc.LoginUser(ctx, "Login@Example.com", "secretpw")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if accessToken == "" || refreshToken == "" {
		t.Fatalf("login returned empty tokens")
	}

	authedCtx, err := svc.SetContextFromToken(ctx, accessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil {
		t.Fatalf("no request data set from token")
	}
	if rd.UserID != user.ID {
		t.Errorf("request data user = %s, want %s", rd.UserID, user.ID)
	}
	if rd.RefreshToken != refreshToken {
		t.Errorf("request data refresh token does not match the issued one")
	}
}
