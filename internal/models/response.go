package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformedResponse is returned when a command response body is not a
// JSON object of either known shape.
var ErrMalformedResponse = errors.New("malformed command response")

var legacyEmailPattern = regexp.MustCompile(`(?i)email\s*=\s*([\w@.+-]+)`)

type wireEnvelope struct {
	Results json.RawMessage `json:"results"`
	Login   *legacyLogin    `json:"login"`
}

type legacyLogin struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Error   string `json:"error"`
}

type wireStep struct {
	Tool    string          `json:"tool"`
	Success *bool           `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type wirePayload struct {
	StepPayload
	Results json.RawMessage `json:"results"`
}

// ParseCommandResponse decodes the body of /api/agentic-command. The command
// text is only consulted for the legacy {login:{...}} shape, which does not
// echo the account e-mail.
func ParseCommandResponse(body []byte, command string) (CommandResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return CommandResponse{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}

	var envelope wireEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return CommandResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	resp := CommandResponse{Raw: json.RawMessage(body)}

	results := bytes.TrimSpace(envelope.Results)
	switch {
	case len(results) > 0 && !bytes.Equal(results, []byte("null")):
		var raws []json.RawMessage
		if err := json.Unmarshal(results, &raws); err != nil {
			return CommandResponse{}, fmt.Errorf("%w: results is not a list", ErrMalformedResponse)
		}
		resp.Steps = make([]StepResult, 0, len(raws))
		for _, raw := range raws {
			resp.Steps = append(resp.Steps, decodeStep(raw))
		}
	case envelope.Login != nil:
		resp.Legacy = true
		resp.Steps = []StepResult{legacyStep(*envelope.Login, command)}
	}

	return resp, nil
}

func decodeStep(raw json.RawMessage) StepResult {
	step := StepResult{Raw: raw}

	var wire wireStep
	if err := json.Unmarshal(raw, &wire); err != nil {
		step.Malformed = true
		return step
	}

	step.Tool = wire.Tool
	step.Error = wire.Error
	step.Message = wire.Message
	if wire.Success != nil {
		step.HasStatus = true
		step.Success = *wire.Success
	}

	result := bytes.TrimSpace(wire.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return step
	}

	var payload wirePayload
	if err := json.Unmarshal(result, &payload); err != nil {
		step.Malformed = true
		return step
	}
	if len(payload.Results) > 0 {
		var responses SearchResponses
		if err := json.Unmarshal(payload.Results, &responses); err == nil {
			payload.StepPayload.Results = &responses
		}
	}
	payload.StepPayload.Data = wire.Result
	step.Result = &payload.StepPayload

	return step
}

func legacyStep(login legacyLogin, command string) StepResult {
	step := StepResult{
		Tool:      "login",
		Success:   login.Success,
		HasStatus: true,
	}
	if !login.Success {
		step.Error = login.Error
		if step.Error == "" {
			step.Error = "Login failed"
		}
		return step
	}

	payload := &StepPayload{Token: login.Token, fromLegacyLogin: true}
	if m := legacyEmailPattern.FindStringSubmatch(command); len(m) == 2 {
		payload.UserEmail = m[1]
	}
	step.Result = payload
	return step
}
