package campaign

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/sablier-labs/merkle-api/pkg/config"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

// Record is one validated recipient: the address as supplied, the amount in
// base units, and the original decimal amount text for display.
type Record struct {
	Address    string
	Amount     uint64
	AmountText string
}

// Parsed is the outcome of ingesting a campaign CSV. When ValidationErrors is
// non-empty the other fields are not meaningful and the upload must be
// rejected as a whole.
type Parsed struct {
	Records            []Record
	TotalAmount        *big.Int
	NumberOfRecipients int
	ValidationErrors   []types.ValidationError
}

// ParseCSV ingests a recipient list in `address,amount` CSV form.
//
// The header and every row are checked with the column validators for the
// campaign's address kind and decimal precision; all row errors are
// accumulated so the caller can report them in one response. Duplicate
// addresses (case-insensitive) are rejected. Amounts are converted to base
// units by shifting the decimal point `decimals` places; the conversion is
// exact since the validator already bounded the fractional digits.
//
// The returned error covers unreadable CSV only; content problems are
// reported through ValidationErrors.
func ParseCSV(r io.Reader, decimals int, kind config.AddressKind) (*Parsed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	validators := []ColumnValidator{
		AddressColumnValidator{Kind: kind},
		NewAmountColumnValidator(decimals),
	}

	parsed := &Parsed{TotalAmount: new(big.Int)}

	if headerErr := ValidateHeader(header, validators); headerErr != nil {
		parsed.ValidationErrors = append(parsed.ValidationErrors, *headerErr)
		return parsed, nil
	}

	seen := make(map[string]bool)

	for rowIndex := 0; ; rowIndex++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rowIndex+2, err)
		}

		if rowErrors := ValidateRow(row, rowIndex, validators); len(rowErrors) > 0 {
			parsed.ValidationErrors = append(parsed.ValidationErrors, rowErrors...)
			continue
		}

		address := strings.TrimSpace(row[0])
		amountText := strings.TrimSpace(row[1])

		key := strings.ToLower(address)
		if seen[key] {
			parsed.ValidationErrors = append(parsed.ValidationErrors, types.ValidationError{
				Row:     rowIndex + 2,
				Message: fmt.Sprintf("Each recipient should have a unique address. The address %s appears multiple times", address),
			})
			continue
		}
		seen[key] = true

		amount, err := toBaseUnits(amountText, decimals)
		if err != nil {
			parsed.ValidationErrors = append(parsed.ValidationErrors, types.ValidationError{
				Row:     rowIndex + 2,
				Message: err.Error(),
			})
			continue
		}

		parsed.Records = append(parsed.Records, Record{
			Address:    address,
			Amount:     amount,
			AmountText: amountText,
		})
		parsed.TotalAmount.Add(parsed.TotalAmount, new(big.Int).SetUint64(amount))
	}

	if len(parsed.ValidationErrors) == 0 && len(parsed.Records) == 0 {
		parsed.ValidationErrors = append(parsed.ValidationErrors, types.ValidationError{
			Row:     1,
			Message: "The csv file contains no recipients",
		})
	}

	parsed.NumberOfRecipients = len(parsed.Records)
	return parsed, nil
}

// toBaseUnits converts a validated decimal literal to an integer amount in
// base units (value * 10^decimals), exactly.
func toBaseUnits(amountText string, decimals int) (uint64, error) {
	text := strings.TrimPrefix(amountText, "+")

	intPart := text
	fracPart := ""
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		intPart, fracPart = text[:dot], text[dot+1:]
	}
	if len(fracPart) > decimals {
		return 0, fmt.Errorf("amount %s has more than %d decimals", amountText, decimals)
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	value, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return 0, fmt.Errorf("amount %s is not a valid decimal number", amountText)
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("amount %s does not fit in 64 bits at %d decimals", amountText, decimals)
	}

	return value.Uint64(), nil
}
