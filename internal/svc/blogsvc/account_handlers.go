package blogsvc

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/form"
	"github.com/mkrupp/quill/internal/infra/session"
	"github.com/mkrupp/quill/internal/svc/authsvc"
)

const (
	msgUsernameTaken   = "That username is taken. Please choose a different one."
	msgEmailTaken      = "That email is taken. Please choose a different one."
	msgAccountCreated  = "Your account has been created! You are now able to log in"
	msgLoginFailed     = "Login unsuccessful. Please check email and password"
	msgAccountUpdated  = "Your account has been updated!"
	msgPictureType     = "File does not have an approved extension: jpg, jpeg, png"
	msgPictureTooLarge = "File is too large."
	msgPictureMismatch = "File content does not match its extension."
)

// HandleRegister shows and processes the registration form.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "register", ht.handleRegister)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) error {
	//nolint:exhaustruct
	data := &pageData{Title: "Register"}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "register", data)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}

	ctx := r.Context()

	var input registrationInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if result.Valid() {
		if err := ht.checkTaken(r, result, input.Username, input.Email, "", ""); err != nil {
			return err
		}
	}

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "register", data)
	}

	_, err = ht.auth.RegisterUser(ctx, input.Username, input.Email, input.Password)

	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		result.AddError("username", msgUsernameTaken)

		return ht.render(w, r, http.StatusOK, "register", data)
	case err != nil:
		return fmt.Errorf("register user: %w", err)
	}

	ht.events.CountEvent("user_registered")
	session.FromContext(ctx).AddFlash(session.FlashSuccess, msgAccountCreated)
	redirect(w, r, routeURL("login"))

	return nil
}

// checkTaken adds uniqueness errors for username and email values that
// differ from the current ones.
func (ht *HTTPTransport) checkTaken(
	r *http.Request,
	result *form.Result,
	username, email string,
	currentUsername, currentEmail string,
) error {
	if username != currentUsername {
		taken, err := ht.auth.UsernameTaken(r.Context(), username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}

		if taken {
			result.AddError("username", msgUsernameTaken)
		}
	}

	if email != currentEmail {
		taken, err := ht.auth.EmailTaken(r.Context(), email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}

		if taken {
			result.AddError("email", msgEmailTaken)
		}
	}

	return nil
}

// HandleLogin shows and processes the login form.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "login", ht.handleLogin)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) error {
	//nolint:exhaustruct
	data := &pageData{Title: "Login"}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "login", data)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(errBadRequest, err)
	}

	ctx := r.Context()
	sess := session.FromContext(ctx)

	var input loginInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "login", data)
	}

	found, err := ht.auth.Authenticate(ctx, input.Email, input.Password)

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		ht.events.CountEvent("login_failed")
		sess.AddFlash(session.FlashDanger, msgLoginFailed)

		return ht.render(w, r, http.StatusOK, "login", data)
	case err != nil:
		return fmt.Errorf("authenticate: %w", err)
	}

	ht.events.CountEvent("login")
	sess.Login(found.ID, input.Remember)
	redirect(w, r, resolveNext(r.URL.Query().Get("next")))

	return nil
}

// HandleLogout forgets the session's user.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if currentUser(r.Context()) != nil {
		ht.events.CountEvent("logout")
	}

	session.FromContext(r.Context()).Logout()
	redirect(w, r, routeURL("home"))
}

// HandleAccount shows and processes the profile form.
func (ht *HTTPTransport) HandleAccount(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "account", ht.handleAccount)
}

//nolint:funlen,cyclop
func (ht *HTTPTransport) handleAccount(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	account := currentUser(ctx)

	//nolint:exhaustruct
	data := &pageData{
		Title:    "Account",
		ImageURL: ht.auth.AvatarURL(account),
		Form: form.Fill(map[string]any{
			"username": account.Username,
			"email":    account.Email,
		}),
	}

	if r.Method != http.MethodPost {
		return ht.render(w, r, http.StatusOK, "account", data)
	}

	if err := r.ParseMultipartForm(ht.cfg.MultipartFormMaxMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return errors.Join(errBadRequest, err)
		}

		if err := r.ParseForm(); err != nil {
			return errors.Join(errBadRequest, err)
		}
	}

	var input accountInput

	result, err := form.Decode(r.PostForm, &input)
	if err != nil {
		return fmt.Errorf("decode form: %w", err)
	}

	data.Form = result

	if result.Valid() {
		if err := ht.checkTaken(r, result, input.Username, input.Email, account.Username, account.Email); err != nil {
			return err
		}
	}

	picture, err := ht.readPicture(r, result)
	if err != nil {
		return err
	}

	if !result.Valid() {
		return ht.render(w, r, http.StatusOK, "account", data)
	}

	err = ht.auth.UpdateAccount(ctx, account, authsvc.AccountUpdate{
		Username: input.Username,
		Email:    input.Email,
		Picture:  picture,
	})

	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		result.AddError("username", msgUsernameTaken)

		return ht.render(w, r, http.StatusOK, "account", data)
	case addPictureError(result, err):
		return ht.render(w, r, http.StatusOK, "account", data)
	case err != nil:
		return fmt.Errorf("update account: %w", err)
	}

	if picture != nil {
		ht.events.CountEvent("avatar_updated")
	}

	session.FromContext(ctx).AddFlash(session.FlashSuccess, msgAccountUpdated)
	redirect(w, r, routeURL("account"))

	return nil
}

// readPicture returns the uploaded picture, nil when none was chosen.
// Name and size violations are reported as form errors.
func (ht *HTTPTransport) readPicture(r *http.Request, result *form.Result) (*authsvc.Upload, error) {
	file, header, err := r.FormFile("picture")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, errors.Join(errBadRequest, err)
	}
	defer file.Close()

	if _, _, err := ht.auth.ImageSvc.CheckUploadConstraints(header.Filename, header.Size, nil); err != nil {
		if addPictureError(result, err) {
			return nil, nil //nolint:nilnil
		}

		return nil, fmt.Errorf("check upload: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &authsvc.Upload{Filename: header.Filename, Data: data}, nil
}

// addPictureError reports image errors on the picture field.
func addPictureError(result *form.Result, err error) bool {
	switch {
	case errors.Is(err, domain.ErrImageTypeNotSupported):
		result.AddError("picture", msgPictureType)
	case errors.Is(err, domain.ErrImageTooLarge):
		result.AddError("picture", msgPictureTooLarge)
	case errors.Is(err, domain.ErrImageTypeMismatch):
		result.AddError("picture", msgPictureMismatch)
	default:
		return false
	}

	return true
}
