package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Status string

const (
	StatusReceived  Status = "received"
	StatusInTransit Status = "intransit"
	StatusDelivered Status = "delivered"
)

var Statuses = []Status{StatusReceived, StatusInTransit, StatusDelivered}

// Destinations and Carriers are the fixed code sets the metrics API filters on.
var (
	Destinations = []string{"GUY", "SVG", "SLU", "BIM", "DOM", "GRD", "SKN", "ANU", "SXM", "FSXM"}
	Carriers     = []string{"FEDEX", "DHL", "USPS", "UPS", "AMAZON"}
)

// Field names one settable dimension of FilterState. Values match the
// query parameter names of GET /metrics/shipments.
type Field string

const (
	FieldStatus       Field = "status"
	FieldDestination  Field = "destination"
	FieldCarrier      Field = "carrier"
	FieldArrivalStart Field = "arrival_date_start"
	FieldArrivalEnd   Field = "arrival_date_end"
	FieldSearch       Field = "search"
	FieldPage         Field = "page"
)

// FilterFields lists every field whose change resets pagination.
var FilterFields = []Field{
	FieldStatus,
	FieldDestination,
	FieldCarrier,
	FieldArrivalStart,
	FieldArrivalEnd,
	FieldSearch,
}

func ParseField(s string) (Field, error) {
	f := Field(strings.TrimSpace(strings.ToLower(s)))
	if f == FieldPage {
		return f, nil
	}
	for _, known := range FilterFields {
		if f == known {
			return f, nil
		}
	}
	return "", &ValidationError{Field: "field", Value: s, Reason: "unknown filter field"}
}

// FilterState is an immutable snapshot of the shipment query. Empty strings
// and zero dates mean "not filtered". Methods return modified copies.
type FilterState struct {
	Status       Status `json:"status" validate:"omitempty,oneof=received intransit delivered"`
	Destination  string `json:"destination" validate:"omitempty,oneof=GUY SVG SLU BIM DOM GRD SKN ANU SXM FSXM"`
	Carrier      string `json:"carrier" validate:"omitempty,oneof=FEDEX DHL USPS UPS AMAZON"`
	ArrivalStart Date   `json:"arrival_date_start"`
	ArrivalEnd   Date   `json:"arrival_date_end"`
	Search       string `json:"search"`
	Page         int    `json:"page" validate:"min=1"`
	PageSize     int    `json:"page_size" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func NewFilterState(pageSize int) FilterState {
	return FilterState{Page: 1, PageSize: pageSize}
}

// Validate checks enum membership and paging bounds.
func (f FilterState) Validate() error {
	return validationError(validate.Struct(f))
}

// With returns a copy with field set to value. Setting any field other than
// page resets page to 1. An unchanged value returns f as is.
func (f FilterState) With(field Field, value string) (FilterState, error) {
	value = strings.TrimSpace(value)
	next := f

	switch field {
	case FieldStatus:
		next.Status = Status(strings.ToLower(value))
	case FieldDestination:
		next.Destination = strings.ToUpper(value)
	case FieldCarrier:
		next.Carrier = strings.ToUpper(value)
	case FieldArrivalStart, FieldArrivalEnd:
		d, err := ParseDate(value)
		if err != nil {
			return f, &ValidationError{Field: string(field), Value: value, Reason: "expected YYYY-MM-DD", Err: err}
		}
		if field == FieldArrivalStart {
			next.ArrivalStart = d
		} else {
			next.ArrivalEnd = d
		}
	case FieldSearch:
		next.Search = value
	case FieldPage:
		n, err := strconv.Atoi(value)
		if err != nil {
			return f, &ValidationError{Field: string(field), Value: value, Reason: "expected an integer", Err: err}
		}
		next.Page = n
	default:
		return f, &ValidationError{Field: "field", Value: string(field), Reason: "unknown filter field"}
	}

	if err := next.Validate(); err != nil {
		return f, err
	}
	if next.Equal(f) {
		return f, nil
	}
	if field != FieldPage {
		next.Page = 1
	}
	return next, nil
}

func (f FilterState) Equal(o FilterState) bool {
	return f.Status == o.Status &&
		f.Destination == o.Destination &&
		f.Carrier == o.Carrier &&
		f.ArrivalStart.Equal(o.ArrivalStart) &&
		f.ArrivalEnd.Equal(o.ArrivalEnd) &&
		f.Search == o.Search &&
		f.Page == o.Page &&
		f.PageSize == o.PageSize
}

// Value returns the string form of field, "" when unset.
func (f FilterState) Value(field Field) string {
	switch field {
	case FieldStatus:
		return string(f.Status)
	case FieldDestination:
		return f.Destination
	case FieldCarrier:
		return f.Carrier
	case FieldArrivalStart:
		return f.ArrivalStart.String()
	case FieldArrivalEnd:
		return f.ArrivalEnd.String()
	case FieldSearch:
		return f.Search
	case FieldPage:
		return strconv.Itoa(f.Page)
	}
	return ""
}

// QueryKey identifies the result set independent of the page position.
func (f FilterState) QueryKey() string {
	return strings.Join([]string{
		string(f.Status),
		f.Destination,
		f.Carrier,
		f.ArrivalStart.String(),
		f.ArrivalEnd.String(),
		f.Search,
		strconv.Itoa(f.PageSize),
	}, "|")
}

// CacheKey identifies one page of one result set.
func (f FilterState) CacheKey() string {
	return fmt.Sprintf("%s|p%d", f.QueryKey(), f.Page)
}

func validationError(err error) error {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		fe := errs[0]
		return &ValidationError{
			Field:  fe.Field(),
			Value:  fmt.Sprint(fe.Value()),
			Reason: reasonFor(fe),
			Err:    err,
		}
	}
	return &ValidationError{Field: "filter", Reason: err.Error(), Err: err}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "failed " + fe.Tag()
}
