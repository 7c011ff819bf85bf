package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"insurance-dms/internal/models"
)

var (
	emailRx    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRx = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

const (
	usernameMinLen = 4
	usernameMaxLen = 150
	fullNameMinLen = 3
	fullNameMaxLen = 255
	mobileMinLen   = 10
	mobileMaxLen   = 20
	PasswordMinLen = 8
)

// UserForm содержит анкетные поля пользователя в том виде, как их прислали.
type UserForm struct {
	Email     string  `json:"email" form:"email"`
	Username  string  `json:"username" form:"username"`
	FullName  string  `json:"full_name" form:"full_name"`
	Mobile    *string `json:"mobile" form:"mobile"`
	UserLevel string  `json:"user_level" form:"user_level"`
}

// Normalize приводит поля к каноническому виду. Повторный вызов ничего не меняет.
func (f *UserForm) Normalize() {
	f.Email = NormalizeEmail(f.Email)
	f.Username = strings.TrimSpace(f.Username)
	f.FullName = CollapseSpaces(f.FullName)
	f.UserLevel = strings.TrimSpace(f.UserLevel)
	if f.Mobile != nil {
		m := strings.TrimSpace(*f.Mobile)
		if m == "" {
			f.Mobile = nil
		} else {
			f.Mobile = &m
		}
	}
}

// Clean нормализует форму на месте и возвращает *Error со всеми найденными
// проблемами, либо nil.
func (f *UserForm) Clean() error {
	f.Normalize()

	errs := Errors{}
	checkEmail(errs, "email", f.Email, true)
	checkUsername(errs, f.Username)
	checkFullName(errs, f.FullName)
	if f.Mobile != nil {
		checkMobile(errs, *f.Mobile)
	}
	if f.UserLevel != "" {
		if _, ok := models.ParseDesignation(f.UserLevel); !ok {
			errs.Add("user_level", InvalidChoice, "Select a valid designation.")
		}
	}
	return errs.Err()
}

// Designation возвращает должность или nil, если она не указана. Вызывать после Clean.
func (f *UserForm) Designation() *models.Designation {
	if f.UserLevel == "" {
		return nil
	}
	d, ok := models.ParseDesignation(f.UserLevel)
	if !ok {
		return nil
	}
	return &d
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CollapseSpaces обрезает s и сжимает любые пробельные последовательности до одного пробела.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func checkEmail(errs Errors, field, email string, required bool) {
	if email == "" {
		if required {
			errs.Add(field, Required, "This field is required.")
		}
		return
	}
	if !emailRx.MatchString(email) {
		errs.Add(field, InvalidEmailFormat, "Enter a valid email address.")
	}
}

func checkUsername(errs Errors, username string) {
	if username == "" {
		errs.Add("username", Required, "This field is required.")
		return
	}
	n := utf8.RuneCountInString(username)
	if n < usernameMinLen {
		errs.Add("username", UsernameTooShort, "Username must be at least 4 characters.")
	}
	if n > usernameMaxLen {
		errs.Add("username", UsernameTooLong, "Username must be at most 150 characters.")
	}
	if !usernameRx.MatchString(username) {
		errs.Add("username", UsernameInvalidCharacters, "Username can only contain letters, numbers and underscores.")
	}
}

func checkFullName(errs Errors, fullName string) {
	if fullName == "" {
		errs.Add("full_name", Required, "This field is required.")
		return
	}
	n := utf8.RuneCountInString(fullName)
	if n < fullNameMinLen {
		errs.Add("full_name", FullNameTooShort, "Full name must be at least 3 characters.")
	}
	if n > fullNameMaxLen {
		errs.Add("full_name", FullNameTooLong, "Full name must be at most 255 characters.")
	}
	if len(strings.Fields(fullName)) < 2 {
		errs.Add("full_name", FullNameMissingPart, "Please provide both first and last name.")
	}
}

func checkMobile(errs Errors, mobile string) {
	if !isDigits(mobile) {
		errs.Add("mobile", MobileInvalidCharacters, "Mobile number should contain only digits.")
	}
	n := utf8.RuneCountInString(mobile)
	if n < mobileMinLen {
		errs.Add("mobile", MobileTooShort, "Mobile number should be at least 10 digits.")
	}
	if n > mobileMaxLen {
		errs.Add("mobile", MobileTooLong, "Mobile number should not exceed 20 digits.")
	}
}

// CheckPassword проверяет новый пароль в открытом виде.
func CheckPassword(password string) error {
	errs := Errors{}
	switch {
	case password == "":
		errs.Add("password", Required, "This field is required.")
	case utf8.RuneCountInString(password) < PasswordMinLen:
		errs.Add("password", PasswordTooShort, "Password must be at least 8 characters.")
	}
	return errs.Err()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
