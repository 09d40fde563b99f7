package blogsvc

// bcrypt ignores everything past 72 bytes and rejects longer inputs, hence
// maxbytes on every password that gets hashed.

type registrationInput struct {
	Username        string `form:"username" validate:"required,min=2,max=20"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password,notrim" validate:"notblank,maxbytes=72"`
	ConfirmPassword string `form:"confirm_password,notrim" validate:"notblank,eqfield=Password"`
}

type loginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password,notrim" validate:"notblank"`
	Remember bool   `form:"remember"`
}

type accountInput struct {
	Username string `form:"username" validate:"required,min=2,max=20"`
	Email    string `form:"email" validate:"required,email"`
}

type postInput struct {
	Title   string `form:"title" validate:"required,max=100"`
	Content string `form:"content" validate:"required"`
}

type resetRequestInput struct {
	Email string `form:"email" validate:"required,email"`
}

type resetPasswordInput struct {
	Password        string `form:"password,notrim" validate:"notblank,maxbytes=72"`
	ConfirmPassword string `form:"confirm_password,notrim" validate:"notblank,eqfield=Password"`
}
