package register

import (
	"fmt"
	"net/url"

	"github.com/gorilla/schema"
	gopass "github.com/nbutton23/zxcvbn-go"
)

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// DraftFromValues binds form encoded fields (fullName, email, password,
// confirmPassword) into a Draft.
func DraftFromValues(values url.Values) (Draft, error) {
	var d Draft
	if err := formDecoder.Decode(&d, values); err != nil {
		return Draft{}, fmt.Errorf("decode registration form: %w", err)
	}
	return d, nil
}

// Strength is a password strength estimate for display
type Strength struct {
	Score     int     `json:"score"`
	Entropy   float64 `json:"entropy"`
	CrackTime string  `json:"crackTime"`
}

// Weak mirrors the Account Service signup threshold
func (s Strength) Weak() bool {
	return s.Score < 3 || s.Entropy < 37
}

// EstimateStrength scores password, penalising reuse of the other fields.
func EstimateStrength(password string, userInputs ...string) Strength {
	if password == "" {
		return Strength{}
	}
	inputs := make([]string, 0, len(userInputs))
	for _, in := range userInputs {
		if in != "" {
			inputs = append(inputs, in)
		}
	}
	m := gopass.PasswordStrength(password, inputs)
	return Strength{Score: m.Score, Entropy: m.Entropy, CrackTime: m.CrackTimeDisplay}
}
