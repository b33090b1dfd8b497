package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"options-risk/internal/errors"
	"options-risk/internal/models"
)

// TradeRequest is the on-disk form of a validation request. JSON files parse
// too, since JSON is a subset of YAML.
type TradeRequest struct {
	Cash              float64        `yaml:"cash" json:"cash"`
	RiskProfile       string         `yaml:"risk_profile" json:"risk_profile"`
	NewPositions      []PositionSpec `yaml:"new_positions" json:"new_positions"`
	ExistingPositions []PositionSpec `yaml:"existing_positions" json:"existing_positions"`
}

// PositionSpec is one leg as written in a request file.
type PositionSpec struct {
	Symbol            string  `yaml:"symbol" json:"symbol"`
	Kind              string  `yaml:"kind" json:"kind"`
	Action            string  `yaml:"action" json:"action"`
	Strike            float64 `yaml:"strike" json:"strike"`
	Expiry            string  `yaml:"expiry" json:"expiry"`
	Quantity          int     `yaml:"quantity" json:"quantity"`
	Premium           float64 `yaml:"premium" json:"premium"`
	ImpliedVolatility float64 `yaml:"implied_volatility" json:"implied_volatility"`
	UnderlyingPrice   float64 `yaml:"underlying_price" json:"underlying_price"`
}

// LoadTradeRequest reads a request from path, or from stdin when path is "-".
func LoadTradeRequest(path string, stdin io.Reader) (*TradeRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trade request: %w", err)
	}
	return ParseTradeRequest(data)
}

// ParseTradeRequest decodes a YAML or JSON request. Unknown fields are rejected.
func ParseTradeRequest(data []byte) (*TradeRequest, error) {
	var req TradeRequest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			return nil, errors.NewValidationError("request", "", "is empty")
		}
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("malformed trade request: %v", err))
	}
	return &req, nil
}

// Profile returns the requested risk profile, MODERATE when unset.
func (r *TradeRequest) Profile() (models.RiskProfile, error) {
	if strings.TrimSpace(r.RiskProfile) == "" {
		return models.Moderate, nil
	}
	p, err := models.ParseRiskProfile(r.RiskProfile)
	if err != nil {
		return "", errors.NewValidationError("risk_profile", r.RiskProfile, err.Error())
	}
	return p, nil
}

// Positions converts both leg lists into domain positions.
func (r *TradeRequest) Positions() (newPositions, existing []models.OptionPosition, err error) {
	newPositions, err = convertPositions("new_positions", r.NewPositions)
	if err != nil {
		return nil, nil, err
	}
	existing, err = convertPositions("existing_positions", r.ExistingPositions)
	if err != nil {
		return nil, nil, err
	}
	return newPositions, existing, nil
}

func convertPositions(field string, specs []PositionSpec) ([]models.OptionPosition, error) {
	positions := make([]models.OptionPosition, 0, len(specs))
	for i, spec := range specs {
		pos, err := spec.toPosition()
		if err != nil {
			return nil, errors.Wrapf(err, "%s[%d]", field, i)
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

func (s PositionSpec) toPosition() (models.OptionPosition, error) {
	expiry, err := models.ParseExpiry(s.Expiry)
	if err != nil {
		return models.OptionPosition{}, errors.NewValidationError("expiry", s.Expiry, err.Error())
	}
	return models.OptionPosition{
		Symbol:            strings.ToUpper(strings.TrimSpace(s.Symbol)),
		Kind:              models.OptionKind(strings.ToUpper(strings.TrimSpace(s.Kind))),
		Action:            models.OptionAction(strings.ToUpper(strings.TrimSpace(s.Action))),
		Strike:            s.Strike,
		Expiry:            expiry,
		Quantity:          s.Quantity,
		Premium:           s.Premium,
		ImpliedVolatility: s.ImpliedVolatility,
		UnderlyingPrice:   s.UnderlyingPrice,
	}, nil
}
