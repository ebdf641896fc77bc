package delivery

import (
	"encoding/json"

	"office-agent/pkg/smtp"
)

// stringList accepts either "a@x.com, b@y.com" or ["a@x.com", "b@y.com"]
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = smtp.SplitAddresses(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
