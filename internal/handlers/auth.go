package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-desk/auth"
	"github.com/diewo77/invoice-desk/httpx"
	"github.com/diewo77/invoice-desk/i18n"
	"github.com/diewo77/invoice-desk/internal/models"
	"github.com/diewo77/invoice-desk/validation"
)

type AuthHandler struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewAuthHandler(db *gorm.DB, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{db: db, log: log}
}

type credentials struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (c *credentials) fromForm(f url.Values) error {
	c.Name = f.Get("name")
	c.Email = f.Get("email")
	c.Password = f.Get("password")
	return nil
}

func (c *credentials) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderPage(w, r, h.log, http.StatusOK, "login.html", map[string]any{"Email": ""})
		return
	}
	var c credentials
	if err := bind(r, &c, c.fromForm); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	c.normalize()

	var user models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", c.Email).First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(c.Password))
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.log.Error().Err(err).Msg("login lookup failed")
		}
		h.fail(w, r, http.StatusUnauthorized, "login.html", "login.invalid", c, nil)
		return
	}

	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderPage(w, r, h.log, http.StatusOK, "signup.html", map[string]any{"Email": "", "Name": ""})
		return
	}
	var c credentials
	if err := bind(r, &c, c.fromForm); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	c.normalize()
	if v := validation.Struct(c); !v.Empty() {
		h.fail(w, r, http.StatusUnprocessableEntity, "signup.html", "validation_failed", c, v)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user := models.User{Email: c.Email, Name: c.Name, Password: string(hashedPassword)}

	var count int64
	if err := h.db.WithContext(r.Context()).Model(&models.User{}).Where("email = ?", c.Email).Count(&count).Error; err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if count > 0 {
		h.fail(w, r, http.StatusConflict, "signup.html", "signup.exists", c, nil)
		return
	}
	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.log.Info().Uint("user_id", user.ID).Msg("user signed up")

	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/invoices", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// fail redisplays the form with a message; the password is never echoed back.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, status int, page, code string, c credentials, v validation.Violations) {
	if httpx.WantsJSON(r) {
		var details any
		if v != nil {
			details = v
		}
		httpx.JSONError(w, status, code, details)
		return
	}
	data := map[string]any{
		"Error": i18n.T(i18n.LangFromContext(r.Context()), code),
		"Email": c.Email,
		"Name":  c.Name,
	}
	if v != nil {
		data["Errors"] = v
	}
	renderPage(w, r, h.log, status, page, data)
}
