package wizard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
)

// ValidateLaunchArguments checks the supplied values against the type's
// argument definitions: required args present, int args parseable.
func ValidateLaunchArguments(t *Type, args map[string]any) error {
	for _, def := range t.LaunchArguments {
		val, ok := args[def.ID]
		if !ok || val == nil {
			if def.Required {
				return apierr.BadRequest(apierr.CodeMissingArgument,
					fmt.Errorf("launch argument %q is required", def.ID))
			}
			continue
		}
		if def.Type == ArgInt {
			if _, err := intArg(val); err != nil {
				return apierr.BadRequest(apierr.CodeInvalidArgument,
					fmt.Errorf("launch argument %q: %v", def.ID, err))
			}
		}
	}
	return nil
}

// Period extracts and range-checks the year/month launch arguments used by
// monthly wizards.
func Period(args map[string]any) (year, month int, err error) {
	year, err = requiredIntArg(args, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err = requiredIntArg(args, "month")
	if err != nil {
		return 0, 0, err
	}
	if year < 1900 || year > 2100 {
		return 0, 0, apierr.BadRequest(apierr.CodeInvalidArgument,
			fmt.Errorf("year %d outside [1900,2100]", year))
	}
	if month < 1 || month > 12 {
		return 0, 0, apierr.BadRequest(apierr.CodeInvalidArgument,
			fmt.Errorf("month %d outside [1,12]", month))
	}
	return year, month, nil
}

func requiredIntArg(args map[string]any, id string) (int, error) {
	val, ok := args[id]
	if !ok || val == nil {
		return 0, apierr.BadRequest(apierr.CodeMissingArgument,
			fmt.Errorf("launch argument %q is required", id))
	}
	n, err := intArg(val)
	if err != nil {
		return 0, apierr.BadRequest(apierr.CodeInvalidArgument,
			fmt.Errorf("launch argument %q: %v", id, err))
	}
	return n, nil
}

// intArg tolerates the shapes JSON decoding produces for numbers.
func intArg(val any) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value %v", val)
	}
}
