package chain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iancoleman/strcase"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// Positional order of the Invoice struct fields
var invoiceFields = []string{
	"invoiceId",
	"seller",
	"buyer",
	"price",
	"amountPaid",
	"createdAt",
	"paidAt",
	"releaseAt",
	"invalidateAt",
	"expiresAt",
	"status",
}

// Normalizes a contract output into OnchainInvoice. Accepts a positional
// tuple, a keyed map or a struct generated by the ABI decoder. Missing
// fields are left empty.
func AdaptInvoice(raw interface{}) (out *OnchainInvoice, err error) {
	fields, err := invoiceFieldsOf(raw)
	if err != nil {
		return
	}

	out = new(OnchainInvoice)
	out.InvoiceId, _ = ToBigInt(fields["invoiceId"])
	out.Seller, _ = ToAddress(fields["seller"])
	out.Buyer, _ = ToAddress(fields["buyer"])
	out.Price, _ = ToBigInt(fields["price"])
	out.AmountPaid, _ = ToBigInt(fields["amountPaid"])
	out.CreatedAt = toUint64(fields["createdAt"])
	out.PaidAt = toUint64(fields["paidAt"])
	out.ReleaseAt = toUint64(fields["releaseAt"])
	out.InvalidateAt = toUint64(fields["invalidateAt"])
	out.ExpiresAt = toUint64(fields["expiresAt"])

	status := toUint64(fields["status"])
	if status > math.MaxUint8 {
		err = fmt.Errorf("%w: status %d out of range", ErrUnsupportedShape, status)
		return nil, err
	}
	out.Status = uint8(status)

	return
}

func invoiceFieldsOf(raw interface{}) (map[string]interface{}, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrUnsupportedShape
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) == 1 {
			// Single return value wrapping the struct
			return invoiceFieldsOf(v[0])
		}
		if len(v) < len(invoiceFields) {
			return nil, fmt.Errorf("%w: %d positional values", ErrUnsupportedShape, len(v))
		}
		out := make(map[string]interface{}, len(invoiceFields))
		for i, name := range invoiceFields {
			out[name] = v[i]
		}
		return out, nil
	}

	val := reflect.ValueOf(raw)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, ErrUnsupportedShape
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		out := make(map[string]interface{}, val.NumField())
		for i := 0; i < val.NumField(); i++ {
			field := val.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" {
				name = strcase.ToLowerCamel(field.Name)
			}
			out[name] = val.Field(i).Interface()
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			// Raw bytes are not a tuple
			return nil, ErrUnsupportedShape
		}
		values := make([]interface{}, val.Len())
		for i := range values {
			values[i] = val.Index(i).Interface()
		}
		return invoiceFieldsOf(values)
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedShape, raw)
}

// Coerces numbers in any of the representations bindings use
func ToBigInt(v interface{}) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	case big.Int:
		return new(big.Int).Set(&n), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case int:
		return big.NewInt(int64(n)), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return nil, false
		}
		out, _ := big.NewFloat(n).Int(nil)
		return out, true
	case json.Number:
		return ToBigInt(string(n))
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, false
		}
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		return new(big.Int).SetString(s, base)
	}
	return nil, false
}

func toUint64(v interface{}) uint64 {
	n, ok := ToBigInt(v)
	if !ok || n.Sign() < 0 || !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}

// Lowercase hex address, false if the value isn't an address
func ToAddress(v interface{}) (string, bool) {
	switch a := v.(type) {
	case common.Address:
		return strings.ToLower(a.Hex()), true
	case *common.Address:
		if a == nil {
			return "", false
		}
		return strings.ToLower(a.Hex()), true
	case string:
		return NormalizeAddress(a)
	case []byte:
		if len(a) != common.AddressLength {
			return "", false
		}
		return strings.ToLower(common.BytesToAddress(a).Hex()), true
	}
	return "", false
}

// Lowercase, zero padded hex address. Short forms like "0xabc" are left padded.
func NormalizeAddress(s string) (string, bool) {
	s = strings.TrimSpace(s)
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if hex == "" || len(hex) > 2*common.AddressLength {
		return "", false
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return "", false
		}
	}
	return strings.ToLower(common.HexToAddress(hex).Hex()), true
}
