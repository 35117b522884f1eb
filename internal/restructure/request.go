package restructure

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Default output names.
const (
	DefaultMergeFilename   = "merged.pdf"
	DefaultPagePattern     = "split-{index}.pdf"
	DefaultRangePattern    = "range-{index}.pdf"
	DefaultBookmarkPattern = "{bookmark}.pdf"
	DefaultSizePattern     = "part-{index}.pdf"
)

// Input is one document handed to an operation.
type Input struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

type MergeRequest struct {
	Documents               []Input        `json:"documents" validate:"min=1"`
	OutputFilename          string         `json:"outputFilename" validate:"notblank"`
	PreserveBookmarks       bool           `json:"preserveBookmarks"`
	PageSizeStandardization PageSizePolicy `json:"pageSizeStandardization" validate:"oneof=KEEP_ORIGINAL A4 USE_FIRST USE_LARGEST"`
}

type SplitByPageRequest struct {
	Document      Input  `json:"document"`
	PagesPerFile  int    `json:"pagesPerFile" validate:"min=1"`
	OutputPattern string `json:"outputPattern" validate:"notblank"`
}

type SplitByRangeRequest struct {
	Document      Input  `json:"document"`
	PageRanges    string `json:"pageRanges" validate:"notblank"`
	OutputPattern string `json:"outputPattern" validate:"notblank"`
}

type SplitByBookmarkRequest struct {
	Document      Input  `json:"document"`
	TopLevelOnly  bool   `json:"topLevelOnly"`
	OutputPattern string `json:"outputPattern" validate:"notblank"`
}

type SplitBySizeRequest struct {
	Document      Input  `json:"document"`
	MaxFileSizeMB int    `json:"maxFileSizeMb" validate:"min=1,max=100"`
	OutputPattern string `json:"outputPattern" validate:"notblank"`
}

func (r *MergeRequest) applyDefaults() {
	if r.OutputFilename == "" {
		r.OutputFilename = DefaultMergeFilename
	}
	if r.PageSizeStandardization == "" {
		r.PageSizeStandardization = UseLargest
	}
}

func defaultPattern(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// describeValidation turns validator output into one readable line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "notblank":
			msgs = append(msgs, fmt.Sprintf("%s must not be blank", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
