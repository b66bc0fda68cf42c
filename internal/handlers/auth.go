package handlers

import (
	"net/http"

	accounts "user_accounts"
	"user_accounts/internal/apperr"
	"user_accounts/internal/models"
	"user_accounts/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgRegistered  = "User registered successfully"
	msgLoggedIn    = "User logged in successfully"
	msgLoggedOut   = "User logged out successfully"
	msgInvalidBody = "Invalid request body"
)

// RegisterRequest is the sign-up payload (JSON or form-encoded).
type RegisterRequest struct {
	Name     string `json:"name" form:"name" example:"Ann"`
	Username string `json:"username" form:"username" example:"ann1"`
	Email    string `json:"email" form:"email" example:"a@x.com"`
	Password string `json:"password" form:"password" example:"secret1"`
}

// LoginRequest is the sign-in payload; username or email plus password.
type LoginRequest struct {
	Username string `json:"username" form:"username" example:"ann1"`
	Email    string `json:"email" form:"email" example:"a@x.com"`
	Password string `json:"password" form:"password" example:"secret1"`
}

type userData struct {
	User models.UserSummary `json:"user"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginData struct {
	User   models.UserSummary `json:"user"`
	Tokens tokenPair          `json:"tokens"`
}

// bindOrFail binds the body into dst by content type. Returns false if the
// request was already handled (aborted).
func (h *Handler) bindOrFail(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		h.log.Infow("auth_bad_request_body", "path", c.FullPath(), "err", err)
		h.fail(c, apperr.Validation(msgInvalidBody, err))
		return false
	}
	return true
}

// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "New account"
// @Success      201   {object}  user_accounts.Response
// @Failure      400   {object}  user_accounts.Response
// @Router       /register [post]
func (h *Handler) registerUser(c *gin.Context) {
	var input RegisterRequest
	if ok := h.bindOrFail(c, &input); !ok {
		return
	}

	user, err := h.services.Register(c.Request.Context(), service.RegisterInput{
		Name:     input.Name,
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	h.metrics.AuthEvent("register", err)
	if err != nil {
		h.log.Infow("auth_register_failed", "username", input.Username, "email", input.Email, "status", apperr.StatusCode(err))
		h.fail(c, err)
		return
	}

	h.log.Infow("auth_register_succeeded", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, accounts.NewResponse(http.StatusCreated, msgRegistered, userData{User: user}))
}

// @Summary      Log in
// @Description  Issues an access and a refresh token, returned in the body and as httpOnly cookies.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  user_accounts.Response
// @Failure      400   {object}  user_accounts.Response
// @Failure      401   {object}  user_accounts.Response
// @Failure      404   {object}  user_accounts.Response
// @Router       /login [post]
func (h *Handler) loginUser(c *gin.Context) {
	var input LoginRequest
	if ok := h.bindOrFail(c, &input); !ok {
		return
	}

	res, err := h.services.Login(c.Request.Context(), service.LoginInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	h.metrics.AuthEvent("login", err)
	if err != nil {
		h.log.Infow("auth_login_failed", "username", input.Username, "email", input.Email, "status", apperr.StatusCode(err))
		h.fail(c, err)
		return
	}

	h.log.Infow("auth_login_succeeded", "user_id", res.User.ID)
	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	c.JSON(http.StatusOK, accounts.NewResponse(http.StatusOK, msgLoggedIn, loginData{
		User: res.User,
		Tokens: tokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		},
	}))
}

// @Summary      Log out
// @Description  Clears both token cookies. Requires the accessToken cookie.
// @Tags         users
// @Produce      json
// @Success      200  {object}  user_accounts.Response
// @Failure      401  {object}  user_accounts.Response
// @Failure      404  {object}  user_accounts.Response
// @Router       /logout [get]
// @Security     BearerAuth
func (h *Handler) logoutUser(c *gin.Context) {
	token, _ := c.Cookie(accessTokenCookie)

	var userID string
	if u, ok := currentUser(c); ok {
		userID = u.ID
	}

	err := h.services.Logout(c.Request.Context(), service.LogoutInput{AccessToken: token, UserID: userID})
	h.metrics.AuthEvent("logout", err)
	if err != nil {
		h.log.Infow("auth_logout_failed", "user_id", userID, "status", apperr.StatusCode(err))
		h.fail(c, err)
		return
	}

	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, accounts.NewResponse(http.StatusOK, msgLoggedOut, nil))
}
