package campaign

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"github.com/sablier-labs/merkle-api/pkg/config"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// ColumnValidator validates one CSV column: its header cell and every data
// cell below it. Row numbers in reported errors are 1-based and include the
// header row.
type ColumnValidator interface {
	ValidateCell(cell string, rowIndex int) *types.ValidationError
	ValidateHeader(cell string) *types.ValidationError
}

// AddressColumnValidator validates the recipient address column for one of
// the two supported address formats.
type AddressColumnValidator struct {
	Kind config.AddressKind
}

func (v AddressColumnValidator) ValidateCell(cell string, rowIndex int) *types.ValidationError {
	if !v.isValidAddress(cell) {
		return &types.ValidationError{
			Row:     rowIndex + 2,
			Message: fmt.Sprintf("Invalid %s address", v.Kind),
		}
	}
	return nil
}

func (v AddressColumnValidator) ValidateHeader(cell string) *types.ValidationError {
	if strings.ToLower(cell) != "address" {
		return &types.ValidationError{
			Row:     1,
			Message: "CSV header invalid. The csv header should contain the `address` column. The address column is missing",
		}
	}
	return nil
}

func (v AddressColumnValidator) isValidAddress(address string) bool {
	switch v.Kind {
	case config.AddressKindEVM:
		return common.IsHexAddress(address)
	case config.AddressKindSolana:
		decoded, err := base58.Decode(address)
		return err == nil && len(decoded) == 32
	default:
		return false
	}
}

// AmountColumnValidator validates the amount column. The accepted decimal
// precision is bounded by the campaign's decimals parameter.
type AmountColumnValidator struct {
	regex *regexp.Regexp
}

// NewAmountColumnValidator builds an amount validator that accepts positive
// decimal notation with at most the given number of fractional digits.
func NewAmountColumnValidator(decimals int) AmountColumnValidator {
	pattern := fmt.Sprintf(`^[+]?\d+(\.\d{0,%d})?$`, decimals)
	return AmountColumnValidator{regex: regexp.MustCompile(pattern)}
}

func (v AmountColumnValidator) ValidateCell(cell string, rowIndex int) *types.ValidationError {
	if !v.regex.MatchString(cell) {
		return &types.ValidationError{
			Row:     rowIndex + 2,
			Message: "Amounts should be positive, in normal notation, with an optional decimal point and a maximum number of decimals as provided by the query parameter.",
		}
	}

	if isZeroAmount(cell) {
		return &types.ValidationError{
			Row:     rowIndex + 2,
			Message: "The amount cannot be 0",
		}
	}
	return nil
}

func (v AmountColumnValidator) ValidateHeader(cell string) *types.ValidationError {
	if strings.ToLower(cell) != "amount" {
		return &types.ValidationError{
			Row:     1,
			Message: "CSV header invalid. The csv header should contain the `amount` column. The amount column is missing",
		}
	}
	return nil
}

// isZeroAmount reports whether a valid decimal literal has no nonzero digit.
func isZeroAmount(cell string) bool {
	for _, c := range cell {
		if c >= '1' && c <= '9' {
			return false
		}
	}
	return true
}

// ValidateRow checks a full CSV row against the column validators,
// accumulating every cell error.
func ValidateRow(row []string, rowIndex int, validators []ColumnValidator) []types.ValidationError {
	if len(row) < len(validators) {
		return []types.ValidationError{{
			Row:     rowIndex + 2,
			Message: "Insufficient columns",
		}}
	}

	var errors []types.ValidationError
	for i, validator := range validators {
		cell := strings.TrimSpace(row[i])
		if cellErr := validator.ValidateCell(cell, rowIndex); cellErr != nil {
			errors = append(errors, *cellErr)
		}
	}
	return errors
}

// ValidateHeader checks the CSV header row. The first failing column is
// reported; a broken header makes row validation meaningless.
func ValidateHeader(header []string, validators []ColumnValidator) *types.ValidationError {
	if len(header) < len(validators) {
		return &types.ValidationError{Row: 1, Message: "Insufficient columns"}
	}

	for i, validator := range validators {
		cell := strings.TrimSpace(header[i])
		if headerErr := validator.ValidateHeader(cell); headerErr != nil {
			return headerErr
		}
	}
	return nil
}
