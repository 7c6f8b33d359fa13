// Package testutil holds helpers shared by feature package tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/database"
	"github.com/mo-amir99/course-server-go/pkg/email"
	"github.com/mo-amir99/course-server-go/pkg/logger"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database migrated with models.
func NewDB(tb testing.TB, models ...any) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Discard()))
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)
	// a single connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(tb, db.AutoMigrate(models...))
	return db
}

// Router returns a gin engine in test mode.
func Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// AsUser injects usr as the authenticated user, bypassing token checks.
func AsUser(usr *middleware.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if usr != nil {
			middleware.SetUser(c, usr)
		}
		c.Next()
	}
}

// Admin and Student build context users.
func Admin(id uint) *middleware.User {
	return &middleware.User{ID: id, Name: "Admin", Email: "admin@example.com", Role: types.RoleAdmin}
}

func Student(id uint, name string) *middleware.User {
	return &middleware.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Role: types.RoleStudent}
}

// Do performs a request against h and returns the recorder.
func Do(h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// JSON performs a request with a JSON body.
func JSON(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return Do(h, method, target, reader, "application/json")
}

// FormFile is a file part of a multipart body.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// Multipart encodes fields and files as a multipart/form-data body.
func Multipart(tb testing.TB, fields map[string]string, files ...FormFile) (*bytes.Buffer, string) {
	tb.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(tb, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(tb, err)
		_, err = part.Write(f.Content)
		require.NoError(tb, err)
	}
	require.NoError(tb, w.Close())
	return body, w.FormDataContentType()
}

// PNG returns a small valid PNG image.
func PNG(tb testing.TB) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, img))
	return buf.Bytes()
}

// Notification is one recorded realtime event.
type Notification struct {
	Room    string
	Event   string
	Payload any
}

// Notifier records realtime notifications.
type Notifier struct {
	mu     sync.Mutex
	events []Notification
}

func (n *Notifier) NotifyUser(userID uint, event string, payload any) {
	n.record(fmt.Sprintf("user_%d", userID), event, payload)
}

func (n *Notifier) BroadcastForumPost(postID uint, event string, payload any) {
	n.record(fmt.Sprintf("forum_post_%d", postID), event, payload)
}

func (n *Notifier) record(room, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Notification{Room: room, Event: event, Payload: payload})
}

// Events returns the recorded notifications with the given event name.
func (n *Notifier) Events(event string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []Notification
	for _, e := range n.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Mailer records sent mail and signals each send on Sent.
type Mailer struct {
	mu   sync.Mutex
	sent []email.EmailOptions
	Sent chan struct{}
}

// NewMailer creates a recording mailer.
func NewMailer() *Mailer {
	return &Mailer{Sent: make(chan struct{}, 16)}
}

func (m *Mailer) SendEmail(opts email.EmailOptions) error {
	m.mu.Lock()
	m.sent = append(m.sent, opts)
	m.mu.Unlock()
	m.Sent <- struct{}{}
	return nil
}

// Messages returns the mail sent so far.
func (m *Mailer) Messages() []email.EmailOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.EmailOptions(nil), m.sent...)
}
