package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"wishlistapp/internal/gid"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reShop  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*(\.[a-z0-9-]+)*\.[a-z]{2,}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New(validator.WithRequiredStructEnabled())
	vd.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			return f.Name
		}
		if name == "-" {
			return ""
		}
		return name
	})
	_ = vd.RegisterValidation("shopid", func(fl validator.FieldLevel) bool {
		_, ok := ID(fl.Field().String())
		return ok
	})
	_ = vd.RegisterValidation("shop", func(fl validator.FieldLevel) bool {
		_, ok := Shop(fl.Field().String())
		return ok
	})
	return vd
}

// Struct runs the `validate` tags of s. On failure the error is a
// validator.ValidationErrors.
func Struct(s any) error { return v.Struct(s) }

// Fields lists the json names of the fields that failed, in order.
func Fields(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fe.Field())
	}
	return out
}

// Email validates an address before anything is sent to it.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a Shopify resource id, numeric or global, and returns its
// numeric form.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if gid.IsGlobal(s) {
		s = gid.ToNumeric(s)
	}
	return s, s != "" && reID.MatchString(s)
}

// Shop validates a shop domain such as "a.myshopify.com".
func Shop(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 255 {
		return "", false
	}
	return s, reShop.MatchString(s)
}
