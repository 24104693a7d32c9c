package service

import (
	"context"
	"errors"
	"testing"

	"collabboard/backend/internal/security"
	userdomain "collabboard/backend/internal/user/domain"

	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo implements UserRepo in memory for tests.
type fakeUserRepo struct {
	users  map[int64]*userdomain.User
	nextID int64
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*userdomain.User{}, nextID: 1}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*userdomain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Create(_ context.Context, u *userdomain.User) error {
	if f.err != nil {
		return f.err
	}
	u.ID = f.nextID
	f.nextID++
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func newTestService(t *testing.T, repo UserRepo) *AuthService {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return NewAuthService(repo, security.NewHasher(bcrypt.MinCost), tokens)
}

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)

	res, err := svc.Register(context.Background(), "New@Example.COM", "password1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.Email != "new@example.com" {
		t.Errorf("email = %q, want lowercased", res.User.Email)
	}
	if res.User.Role != userdomain.RoleViewer {
		t.Errorf("role = %q, want viewer default", res.User.Role)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Error("tokens should be issued on register")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)

	if _, err := svc.Register(context.Background(), "a@example.com", "password1", ""); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "a@example.com", "password1", "")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("want ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "not-an-email", "password1", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("bad email: want ErrValidation, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@example.com", "short", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("short password: want ErrValidation, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@example.com", "password1", "superuser"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown role: want ErrValidation, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	if _, err := svc.Register(context.Background(), "a@example.com", "password1", "editor"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login(context.Background(), "a@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.Role != userdomain.RoleEditor {
		t.Errorf("role = %q, want editor", res.User.Role)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Error("tokens should be issued on login")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	if _, err := svc.Register(context.Background(), "a@example.com", "password1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@example.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())
	if _, err := svc.Login(context.Background(), "ghost@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestRefresh_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	res, err := svc.Register(context.Background(), "a@example.com", "password1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	access, err := svc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" {
		t.Error("access token empty after refresh")
	}
}

func TestRefresh_Invalid(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())
	if _, err := svc.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("want ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("empty token: want ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	res, err := svc.Register(context.Background(), "a@example.com", "password1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	delete(repo.users, res.User.ID)

	if _, err := svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("want ErrInvalidRefreshToken for deleted user, got %v", err)
	}
}
