package runtime

import (
	"strings"
	"text/template"

	"github.com/aretw0/coldline/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// decodeParams converts the raw arguments extracted by the external
// classifier into the typed string record declared by the transition.
// Undeclared keys are dropped; missing required fields reject the
// invocation before any effect runs.
func decodeParams(t *domain.Transition, raw map[string]any) (map[string]string, error) {
	if len(t.Params) == 0 {
		return nil, nil
	}

	var decoded map[string]string
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return nil, &domain.ParamError{Transition: t.Name, Err: err}
	}
	if err := dec.Decode(raw); err != nil {
		return nil, &domain.ParamError{Transition: t.Name, Err: err}
	}

	params := make(map[string]string, len(t.Params))
	var missing []string
	for _, p := range t.Params {
		v := strings.TrimSpace(decoded[p.Name])
		if v == "" {
			if p.Required {
				missing = append(missing, p.Name)
			}
			continue
		}
		params[p.Name] = v
	}
	if len(missing) > 0 {
		return nil, &domain.ParamError{Transition: t.Name, Missing: missing}
	}
	return params, nil
}

// renderAck executes the acknowledgement template against the decoded
// params. Templates are parse-checked at script load time, so failures
// here mean a template referenced a param the classifier did not send.
func renderAck(t *domain.Transition, params map[string]string) (string, error) {
	if t.Ack == "" {
		return "", nil
	}
	tmpl, err := template.New(string(t.Name)).Option("missingkey=zero").Parse(t.Ack)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		return "", err
	}
	return sb.String(), nil
}
