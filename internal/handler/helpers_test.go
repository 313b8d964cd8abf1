package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	appmw "app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Fake: UserRepository
// =====================

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int64]*model.User{}}
}

func (r *memUserRepo) add(t *testing.T, email string, password string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u := &model.User{
		ID:           r.nextID,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	r.users[u.ID] = u
	r.nextID++
	return u
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// =====================
// Fake: ApartmentRepository（絞り込みとページングまで実装）
// =====================

type memApartmentRepo struct {
	mu         sync.Mutex
	nextID     int64
	apartments map[int64]model.Apartment
	users      *memUserRepo
}

func newMemApartmentRepo(users *memUserRepo) *memApartmentRepo {
	return &memApartmentRepo{nextID: 1, apartments: map[int64]model.Apartment{}, users: users}
}

func (r *memApartmentRepo) withOwner(a model.Apartment) model.Apartment {
	if u, err := r.users.FindByID(context.Background(), a.OwnerID); err == nil {
		a.Owner = *u
	}
	return a
}

func (r *memApartmentRepo) List(ctx context.Context, q repo.ApartmentListQuery) ([]model.Apartment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []model.Apartment
	for _, a := range r.apartments {
		if q.Availability != nil && a.Availability != *q.Availability {
			continue
		}
		if q.NumberOfRooms != nil && a.NumberOfRooms != *q.NumberOfRooms {
			continue
		}
		if q.Search != "" {
			s := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(a.Name), s) && !strings.Contains(strings.ToLower(a.Description), s) {
				continue
			}
		}
		if q.PriceMin != nil && a.Price.LessThan(*q.PriceMin) {
			continue
		}
		if q.PriceMax != nil && a.Price.GreaterThan(*q.PriceMax) {
			continue
		}
		matched = append(matched, r.withOwner(a))
	}

	//新しい順
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))

	offset := (q.Page - 1) * q.Limit
	if offset >= len(matched) {
		return []model.Apartment{}, total, nil
	}
	end := offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], total, nil
}

func (r *memApartmentRepo) FindBySlug(ctx context.Context, slug string) (model.Apartment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apartments {
		if a.Slug == slug {
			return r.withOwner(a), nil
		}
	}
	return model.Apartment{}, repo.ErrNotFound
}

func (r *memApartmentRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apartments {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *memApartmentRepo) Create(ctx context.Context, a model.Apartment) (model.Apartment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.nextID
	r.nextID++
	a.CreatedAt = time.Now().Add(time.Duration(a.ID) * time.Millisecond)
	a.UpdatedAt = a.CreatedAt
	r.apartments[a.ID] = a
	return a, nil
}

func (r *memApartmentRepo) Update(ctx context.Context, a model.Apartment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.apartments[a.ID]
	if !ok {
		return repo.ErrNotFound
	}

	stored.Name = a.Name
	stored.Description = a.Description
	stored.Price = a.Price
	stored.NumberOfRooms = a.NumberOfRooms
	stored.Square = a.Square
	stored.Availability = a.Availability
	stored.UpdatedAt = time.Now()
	r.apartments[a.ID] = stored
	return nil
}

func (r *memApartmentRepo) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.apartments[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.apartments, id)
	return nil
}

// =====================
// Fake: RevokedTokenRepository
// =====================

type memRevokedRepo struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func newMemRevokedRepo() *memRevokedRepo {
	return &memRevokedRepo{jtis: map[string]time.Time{}}
}

func (r *memRevokedRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jtis[jti] = expiresAt
	return nil
}

func (r *memRevokedRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jtis[jti]
	return ok, nil
}

func (r *memRevokedRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// =====================
// テストサーバー一式
// =====================

type realClock struct{}

func (c *realClock) Now() time.Time { return time.Now() }

type testServer struct {
	e          *echo.Echo
	users      *memUserRepo
	apartments *memApartmentRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := newMemUserRepo()
	apartments := newMemApartmentRepo(users)

	tokenSvc := token.NewService("test-secret", 15*time.Minute, 7*24*time.Hour, newMemRevokedRepo(), &realClock{})

	authUC := usecase.NewAuthUsecase(users, tokenSvc)
	apartmentUC := usecase.NewApartmentUsecase(apartments, validator.NewApartmentValidator(), config.PageSize)

	cfg := config.Config{GoEnv: "dev"}
	authH := handler.NewAuthHandler(authUC, cfg)
	apartmentH := handler.NewApartmentHandler(apartmentUC)

	e := server.New(authH, apartmentH, appmw.AuthJWT(tokenSvc), nil)

	return &testServer{e: e, users: users, apartments: apartments}
}

// doJSONはリクエストを投げてレスポンスを返す
func (s *testServer) doJSON(
	t *testing.T,
	method string,
	path string,
	cookies []*http.Cookie,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// loginはクッキー一式を返す
func (s *testServer) login(t *testing.T, email string, password string) []*http.Cookie {
	t.Helper()

	rec := s.doJSON(t, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: status=%d body=%s", rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status mismatch want=%d got=%d body=%s", want, rec.Code, rec.Body.String())
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("json.Unmarshal failed: %v body=%s", err, rec.Body.String())
	}
}
