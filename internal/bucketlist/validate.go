package bucketlist

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// User-facing validation messages.
const (
	MsgTitleRequired      = "タイトルは必須です"
	MsgTitleTooLong       = "タイトルは200文字以内で入力してください"
	MsgDescriptionTooLong = "説明は1000文字以内で入力してください"
	MsgInvalidPriority    = "優先度は high, medium, low のいずれかを選択してください"
	MsgInvalidStatus      = "ステータスは not_started, in_progress, completed のいずれかを選択してください"
	MsgInvalidDueDate     = "期限日の形式が正しくありません"
	MsgInvalidDueType     = "期限タイプは specific_date, this_year, next_year, unspecified のいずれかを選択してください"
)

// itemRules lists the checks in the order they are reported. Only present
// (non-nil) fields are checked.
type itemRules struct {
	Title       *string `json:"title" validate:"omitnil,notblank,max=200"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Priority    *string `json:"priority" validate:"omitnil,oneof=high medium low"`
	Status      *string `json:"status" validate:"omitnil,oneof=not_started in_progress completed"`
	DueDate     *string `json:"due_date" validate:"omitnil,duedate"`
	DueType     *string `json:"due_type" validate:"omitnil,oneof=specific_date this_year next_year unspecified"`
}

var messages = map[string]string{
	"title.notblank": MsgTitleRequired,
	"title.max":      MsgTitleTooLong,
	"description":    MsgDescriptionTooLong,
	"priority":       MsgInvalidPriority,
	"status":         MsgInvalidStatus,
	"due_date":       MsgInvalidDueDate,
	"due_type":       MsgInvalidDueType,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("duedate", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDueDate(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateInsert checks a create payload. The first failing check is
// returned as a ValidationError; nil means the payload may be stored as is.
func ValidateInsert(in *domain.BucketItemInsert) error {
	priority := string(in.Priority)
	rules := itemRules{
		Title:       &in.Title,
		Description: in.Description,
		Priority:    &priority,
		DueDate:     presentDate(in.DueDate),
	}
	if in.Status != "" {
		status := string(in.Status)
		rules.Status = &status
	}
	if in.DueType != "" {
		dueType := string(in.DueType)
		rules.DueType = &dueType
	}
	return check(&rules)
}

// ValidateUpdate checks a partial update with the same rules as
// ValidateInsert. Absent fields pass; an explicit empty title does not.
func ValidateUpdate(in *domain.BucketItemUpdate) error {
	rules := itemRules{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     presentDate(in.DueDate),
	}
	if in.Priority != nil {
		priority := string(*in.Priority)
		rules.Priority = &priority
	}
	if in.Status != nil {
		status := string(*in.Status)
		rules.Status = &status
	}
	if in.DueType != nil && *in.DueType != "" {
		dueType := string(*in.DueType)
		rules.DueType = &dueType
	}
	return check(&rules)
}

func check(rules *itemRules) error {
	err := validate.Struct(rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domainerrors.Application("validate bucket item", err)
	}

	first := fieldErrs[0]
	field := first.Field()
	msg, ok := messages[field+"."+first.Tag()]
	if !ok {
		msg = messages[field]
	}
	return domainerrors.Validation(field, msg)
}

// presentDate treats a blank form value as absent.
func presentDate(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
