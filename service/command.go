package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"

	"barter/domain/exchange"
)

// command is the WAL payload of one exchange call. The call kind is the
// record type; unused fields are omitted.
type command struct {
	From     string
	To       string
	Resource exchange.Resource
	Quantity int64
	Price    string // "" when the call carries no price
	Urgency  exchange.Urgency
}

const (
	fieldFrom     protowire.Number = 1
	fieldTo       protowire.Number = 2
	fieldResource protowire.Number = 3
	fieldQuantity protowire.Number = 4
	fieldPrice    protowire.Number = 5
	fieldUrgency  protowire.Number = 6
)

func (c command) marshal() []byte {
	var b []byte
	if c.From != "" {
		b = protowire.AppendTag(b, fieldFrom, protowire.BytesType)
		b = protowire.AppendString(b, c.From)
	}
	if c.To != "" {
		b = protowire.AppendTag(b, fieldTo, protowire.BytesType)
		b = protowire.AppendString(b, c.To)
	}
	if c.Resource != exchange.ResourceUnknown {
		b = protowire.AppendTag(b, fieldResource, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.Resource))
	}
	if c.Quantity != 0 {
		b = protowire.AppendTag(b, fieldQuantity, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(c.Quantity))
	}
	if c.Price != "" {
		b = protowire.AppendTag(b, fieldPrice, protowire.BytesType)
		b = protowire.AppendString(b, c.Price)
	}
	if c.Urgency != 0 {
		b = protowire.AppendTag(b, fieldUrgency, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.Urgency))
	}
	return b
}

func unmarshalCommand(b []byte) (command, error) {
	var c command
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldFrom && typ == protowire.BytesType:
			c.From, n = protowire.ConsumeString(b)
		case num == fieldTo && typ == protowire.BytesType:
			c.To, n = protowire.ConsumeString(b)
		case num == fieldPrice && typ == protowire.BytesType:
			c.Price, n = protowire.ConsumeString(b)
		case num == fieldResource && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			c.Resource = exchange.Resource(v)
		case num == fieldQuantity && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			c.Quantity = protowire.DecodeZigZag(v)
		case num == fieldUrgency && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			c.Urgency = exchange.Urgency(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return c, fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return c, nil
}

func priceString(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.String()
}

func (c command) price() (decimal.NullDecimal, error) {
	if c.Price == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(c.Price)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
