package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/eventboard/internal/api/handler"
	"github.com/d60-Lab/eventboard/internal/api/middleware"
	"github.com/d60-Lab/eventboard/internal/api/router"
	"github.com/d60-Lab/eventboard/internal/model"
	"github.com/d60-Lab/eventboard/internal/repository"
	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/database"
)

var fixedNow = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	srv    *httptest.Server
	client *http.Client
}

type page struct {
	status   int
	location string
	body     string
}

func newTestApp(t *testing.T, withCSRF bool, opts ...func(*router.Options)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	authSvc := service.NewAuthService(userRepo, repository.NewTransactor(db), service.PlaintextPasswords{})
	postSvc := service.NewPostServiceWithClock(postRepo, func() time.Time { return fixedNow })

	sessions := session.NewManager(session.NewRedisStore(rdb), userRepo, "test-session-secret", session.Options{})
	var csrf *session.CSRF
	if withCSRF {
		csrf = session.NewCSRF("test-csrf-secret", time.Hour, sessions)
	}

	ro := router.Options{
		Handler:  handler.NewHandler(authSvc, postSvc, sessions, csrf),
		Sessions: sessions,
		CSRF:     csrf,
		DB:       db,
	}
	for _, o := range opts {
		o(&ro)
	}
	engine, err := router.New(ro)
	require.NoError(t, err)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &testApp{t: t, db: db, srv: srv, client: newClient(t)}
}

// newClient returns a browser-like client: own cookie jar, redirects not followed.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) do(client *http.Client, req *http.Request) page {
	a.t.Helper()
	resp, err := client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (a *testApp) getAs(client *http.Client, path string) page {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(client, req)
}

func (a *testApp) postAs(client *http.Client, path string, form url.Values) page {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(client, req)
}

func (a *testApp) get(path string) page                   { return a.getAs(a.client, path) }
func (a *testApp) post(path string, form url.Values) page { return a.postAs(a.client, path, form) }

func (a *testApp) count(m interface{}) int64 {
	a.t.Helper()
	var n int64
	require.NoError(a.t, a.db.Model(m).Count(&n).Error)
	return n
}

func registerAs(a *testApp, client *http.Client, email, name string) {
	a.t.Helper()
	p := a.postAs(client, "/register", url.Values{"email": {email}, "password": {"secret"}, "name": {name}})
	require.Equal(a.t, http.StatusFound, p.status, p.body)
	require.Equal(a.t, "/", p.location)
}

func validPost(title string) url.Values {
	return url.Values{
		"title":      {title},
		"subtitle":   {"Bring snacks"},
		"start_date": {"2026-11-01"},
		"end_date":   {"2026-11-02"},
		"details":    {"Line one\nLine two"},
		"contact":    {"@organiser"},
		"join_url":   {"https://example.com/join"},
	}
}

func TestHome_ListsAllPosts(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Hackathon")).status)

	p := a.getAs(newClient(t), "/")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Picnic")
	assert.Contains(t, p.body, "Hackathon")
	assert.Contains(t, p.body, "Posted by Ann")
}

func TestRegister_NewUserEstablishesSession(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")

	assert.EqualValues(t, 1, a.count(&model.User{}))
	var u model.User
	require.NoError(t, a.db.First(&u).Error)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "Ann", u.Name)

	p := a.get("/make-post")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Log Out")
}

func TestRegister_DuplicateEmailRedirectsToLogin(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, newClient(t), "ann@example.com", "Ann")

	p := a.post("/register", url.Values{"email": {"ann@example.com"}, "password": {"other"}, "name": {"Impostor"}})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/login", p.location)
	assert.EqualValues(t, 1, a.count(&model.User{}))

	login := a.get("/login")
	assert.Contains(t, login.body, "already registered with another account")
	// flash is one-shot
	assert.NotContains(t, a.get("/login").body, "already registered with another account")
	// and no session was established
	assert.Equal(t, http.StatusForbidden, a.get("/make-post").status)
}

func TestRegister_InvalidFormRerenders(t *testing.T) {
	a := newTestApp(t, false)
	p := a.post("/register", url.Values{"email": {"not-an-email"}, "password": {""}, "name": {"Ann"}})
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Invalid email address.")
	assert.Contains(t, p.body, "This field is required.")
	assert.EqualValues(t, 0, a.count(&model.User{}))
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		location string
		flash    string
		loggedIn bool
	}{
		{name: "correct credentials", email: "ann@example.com", password: "secret", location: "/", loggedIn: true},
		{name: "wrong password", email: "ann@example.com", password: "wrong", location: "/login", flash: "Invalid Password, try again!"},
		{name: "unknown email", email: "bob@example.com", password: "secret", location: "/login", flash: "Invalid Email, please try again!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, false)
			registerAs(a, newClient(t), "ann@example.com", "Ann")

			p := a.post("/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			require.Equal(t, http.StatusFound, p.status)
			assert.Equal(t, tt.location, p.location)

			if tt.flash != "" {
				assert.Contains(t, a.get("/login").body, tt.flash)
			}
			status := a.get("/make-post").status
			if tt.loggedIn {
				assert.Equal(t, http.StatusOK, status)
			} else {
				assert.Equal(t, http.StatusForbidden, status)
			}
		})
	}
}

func TestMakePost_AnonymousForbidden(t *testing.T) {
	a := newTestApp(t, false)
	assert.Equal(t, http.StatusForbidden, a.get("/make-post").status)
	assert.Equal(t, http.StatusForbidden, a.post("/make-post", validPost("Picnic")).status)
	assert.EqualValues(t, 0, a.count(&model.Post{}))
}

func TestMakePost_AnonymousForbiddenBeforeCSRF(t *testing.T) {
	a := newTestApp(t, true)
	assert.Equal(t, http.StatusForbidden, a.post("/make-post", validPost("Picnic")).status)
	assert.Equal(t, http.StatusForbidden, a.get("/delete/1").status)
	assert.EqualValues(t, 0, a.count(&model.Post{}))
}

func TestMakePost_CreatesPostForCaller(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")

	p := a.post("/make-post", validPost("Picnic"))
	require.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/", p.location)

	var posts []model.Post
	require.NoError(t, a.db.Find(&posts).Error)
	require.Len(t, posts, 1)
	var ann model.User
	require.NoError(t, a.db.Where("email = ?", "ann@example.com").First(&ann).Error)

	got := posts[0]
	assert.Equal(t, ann.ID, got.AuthorID)
	assert.Equal(t, "October 18, 2026", got.Date)
	assert.Equal(t, "2026-11-01", got.StartDate)
	assert.Equal(t, "2026-11-02", got.EndDate)
	assert.Equal(t, "https://example.com/join", got.FormURL)
	assert.Equal(t, "@organiser", got.ContactOrEmpty())
}

func TestMakePost_RejectsMalformedJoinURL(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")

	form := validPost("Picnic")
	form.Set("join_url", "not-a-url")
	p := a.post("/make-post", form)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Invalid URL.")
	assert.EqualValues(t, 0, a.count(&model.Post{}))
}

func TestMakePost_DuplicateTitleRerenders(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)

	p := a.post("/make-post", validPost("Picnic"))
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "already exists")
	assert.EqualValues(t, 1, a.count(&model.Post{}))
}

func TestDeletePost_AnyAuthenticatedUser(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Hackathon")).status)

	var picnic model.Post
	require.NoError(t, a.db.Where("title = ?", "Picnic").First(&picnic).Error)

	bob := newClient(t)
	registerAs(a, bob, "bob@example.com", "Bob")
	p := a.getAs(bob, "/delete/"+itoa(picnic.ID))
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/", p.location)

	var left []model.Post
	require.NoError(t, a.db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "Hackathon", left[0].Title)
}

func TestDeletePost_MissingIsNotFound(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)

	assert.Equal(t, http.StatusNotFound, a.get("/delete/999").status)
	assert.Equal(t, http.StatusNotFound, a.get("/delete/abc").status)
	assert.EqualValues(t, 1, a.count(&model.Post{}))
}

func TestDeletePost_AnonymousForbidden(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, newClient(t), "ann@example.com", "Ann")
	assert.Equal(t, http.StatusForbidden, a.get("/delete/1").status)
}

func TestLogout_ClearsSession(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusOK, a.get("/make-post").status)

	p := a.get("/logout")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/", p.location)
	assert.Equal(t, http.StatusForbidden, a.get("/make-post").status)
}

func TestViewPost(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)
	var picnic model.Post
	require.NoError(t, a.db.First(&picnic).Error)

	p := a.getAs(newClient(t), "/post/"+itoa(picnic.ID))
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Picnic")
	assert.Contains(t, p.body, "https://example.com/join")

	assert.Equal(t, http.StatusNotFound, a.get("/post/424242").status)
}

func TestProfile_ListsCallersOwnPosts(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)

	bob := newClient(t)
	registerAs(a, bob, "bob@example.com", "Bob")
	require.Equal(t, http.StatusFound, a.postAs(bob, "/make-post", validPost("Hackathon")).status)

	// the path segment does not select the profile owner
	p := a.get("/profile/Bob")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Picnic")
	assert.NotContains(t, p.body, "Hackathon")
}

func TestProfile_AnonymousRedirectsToLogin(t *testing.T) {
	a := newTestApp(t, false)
	p := a.get("/profile/anyone")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/login", p.location)
}

func TestDanglingSessionIsNotFound(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.NoError(t, a.db.Where("email = ?", "ann@example.com").Delete(&model.User{}).Error)

	assert.Equal(t, http.StatusNotFound, a.get("/").status)
}

func TestAbout(t *testing.T) {
	a := newTestApp(t, false)
	p := a.get("/about")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "About")
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func TestCSRF(t *testing.T) {
	a := newTestApp(t, true)
	form := url.Values{"email": {"ann@example.com"}, "password": {"secret"}, "name": {"Ann"}}

	assert.Equal(t, http.StatusBadRequest, a.post("/register", form).status)
	assert.EqualValues(t, 0, a.count(&model.User{}))

	m := csrfInput.FindStringSubmatch(a.get("/register").body)
	require.Len(t, m, 2)
	form.Set("csrf_token", m[1])

	// a token minted for another session is rejected
	other := a.postAs(newClient(t), "/register", form)
	assert.Equal(t, http.StatusBadRequest, other.status)

	p := a.post("/register", form)
	assert.Equal(t, http.StatusFound, p.status)
	assert.EqualValues(t, 1, a.count(&model.User{}))

	// members still need a token
	assert.Equal(t, http.StatusBadRequest, a.post("/make-post", validPost("Picnic")).status)
	assert.EqualValues(t, 0, a.count(&model.Post{}))
}

func TestPostsAPI(t *testing.T) {
	a := newTestApp(t, false)
	registerAs(a, a.client, "ann@example.com", "Ann")
	require.Equal(t, http.StatusFound, a.post("/make-post", validPost("Picnic")).status)

	var list struct {
		Code int          `json:"code"`
		Data []model.Post `json:"data"`
	}
	p := a.get("/api/v1/posts")
	require.Equal(t, http.StatusOK, p.status)
	require.NoError(t, json.Unmarshal([]byte(p.body), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Picnic", list.Data[0].Title)
	assert.NotContains(t, p.body, "secret")
	assert.NotContains(t, p.body, "ann@example.com")
	assert.Contains(t, p.body, `"name":"Ann"`)

	one := a.get("/api/v1/posts/" + itoa(list.Data[0].ID))
	assert.Equal(t, http.StatusOK, one.status)
	assert.NotContains(t, one.body, "ann@example.com")
	assert.Equal(t, http.StatusNotFound, a.get("/api/v1/posts/77").status)
	assert.Equal(t, http.StatusBadRequest, a.get("/api/v1/posts/x").status)
}

func TestLoginRateLimit_IgnoresForwardedFor(t *testing.T) {
	a := newTestApp(t, false, func(o *router.Options) {
		o.Limiter = middleware.NewIPRateLimiter(0.001, 2)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/login", strings.NewReader(""))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		codes = append(codes, a.do(a.client, req).status)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, false)
	p := a.get("/healthz")
	assert.Equal(t, http.StatusOK, p.status)
	assert.JSONEq(t, `{"status":"ok"}`, p.body)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	a := newTestApp(t, false)
	assert.Equal(t, http.StatusNotFound, a.get("/nope").status)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
