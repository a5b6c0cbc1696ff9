package user

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "user-registry/internal/domain/user"
	apperrors "user-registry/pkg/errors"
)

// Per-field rules shared by the strict and partial engines.
const (
	nameRule  = "required"
	emailRule = "required"
	ageRule   = "gte=0,lte=120"
)

var ageMessage = fmt.Sprintf("age must be an integer between %d and %d", domain.MinAge, domain.MaxAge)

// createInput is the normalized form of a create request.
type createInput struct {
	Name  string `json:"name" validate:"required"`
	Age   *int   `json:"age" validate:"required,gte=0,lte=120"`
	Email string `json:"email" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizeCreate applies the field normalizer to a create request.
func normalizeCreate(in CreateUserRequest) createInput {
	var out createInput
	if in.Name != nil {
		out.Name = domain.NormalizeName(*in.Name)
	}
	if in.Email != nil {
		out.Email = domain.NormalizeEmail(*in.Email)
	}
	out.Age = in.Age
	return out
}

// validateCreate runs the strict engine. Every violation is folded into a
// single ValidationError.
func (uc *Usecase) validateCreate(in createInput) error {
	if err := uc.validate.Struct(in); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// buildPatch runs the partial engine: each supplied field is normalized and
// kept only when it passes its rule. Rejected fields are dropped, not reported.
func (uc *Usecase) buildPatch(in UpdateUserRequest) (domain.Patch, []string) {
	var (
		patch   domain.Patch
		dropped []string
	)

	if in.Name != nil {
		name := domain.NormalizeName(*in.Name)
		if uc.validate.Var(name, nameRule) == nil {
			patch.Name = &name
		} else {
			dropped = append(dropped, "name")
		}
	}
	if in.Age != nil {
		age := *in.Age
		if uc.validate.Var(age, ageRule) == nil {
			patch.Age = &age
		} else {
			dropped = append(dropped, "age")
		}
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if uc.validate.Var(email, emailRule) == nil {
			patch.Email = &email
		} else {
			dropped = append(dropped, "email")
		}
	}

	return patch, dropped
}

// formatValidationError converts validator.ValidationErrors into a single ValidationError.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("invalid user data")
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch {
		case e.Field() == "age":
			// A missing age also covers one sent as a string or a fraction
			messages = append(messages, ageMessage)
		case e.Tag() == "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError("invalid user data, check name, age and email", messages...)
}
