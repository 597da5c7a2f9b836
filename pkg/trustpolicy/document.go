// Package trustpolicy models IAM role trust policies and updates them to
// allow a principal to assume the role.
//
// A trust policy is the resource-based policy attached to an IAM role which
// names the principals allowed to call sts:AssumeRole on it. GetRole returns
// the document URL-encoded and UpdateAssumeRolePolicy replaces the whole
// document, so the model preserves every field it does not modify.
package trustpolicy

import (
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"
)

// DefaultVersion is the policy language version stamped on documents which
// do not already carry one.
const DefaultVersion = "2012-10-17"

// AssumeRoleAction is the action granted to principals added by this tool.
const AssumeRoleAction = "sts:AssumeRole"

type Document struct {
	Version   string      `json:"Version,omitempty"`
	ID        string      `json:"Id,omitempty"`
	Statement []Statement `json:"Statement"`
}

// Statement models the policy grammar loosely: fields which can hold either
// a string or a list use StringOrSlice, and fields this tool never inspects
// are carried as raw JSON so a rewrite round-trips them untouched.
type Statement struct {
	Sid          string          `json:"Sid,omitempty"`
	Effect       string          `json:"Effect,omitempty"`
	Principal    *Principal      `json:"Principal,omitempty"`
	NotPrincipal json.RawMessage `json:"NotPrincipal,omitempty"`
	Action       StringOrSlice   `json:"Action,omitempty"`
	NotAction    StringOrSlice   `json:"NotAction,omitempty"`
	Resource     StringOrSlice   `json:"Resource,omitempty"`
	Condition    json.RawMessage `json:"Condition,omitempty"`
}

// Principal is the identity a statement applies to. The grammar allows
// either the bare wildcard string "*" or an object keyed by principal type.
type Principal struct {
	AWS           StringOrSlice `json:"AWS,omitempty"`
	Service       StringOrSlice `json:"Service,omitempty"`
	Federated     StringOrSlice `json:"Federated,omitempty"`
	CanonicalUser StringOrSlice `json:"CanonicalUser,omitempty"`

	// All is set when the principal is the wildcard form "Principal": "*".
	All bool `json:"-"`
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "*" {
			return errors.Errorf("unsupported principal %q: the only bare string principal is \"*\"", s)
		}
		*p = Principal{All: true}
		return nil
	}
	type plain Principal
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "parsing principal")
	}
	*p = Principal(obj)
	return nil
}

func (p Principal) MarshalJSON() ([]byte, error) {
	if p.All {
		return json.Marshal("*")
	}
	type plain Principal
	return json.Marshal(plain(p))
}

// StringOrSlice is a policy field which IAM serves as a bare string when it
// holds one value and as a list otherwise. It marshals back to the same
// shape, matching the documents IAM itself writes.
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrSlice{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("expected a string or a list of strings")
	}
	*s = StringOrSlice(many)
	return nil
}

func (s StringOrSlice) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

// Contains reports whether v is one of the values.
func (s StringOrSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Decode parses a trust policy document as returned by IAM GetRole. The SDK
// hands the document back URL-encoded; input that is not URL-encoded is
// parsed as-is.
func Decode(doc string) (*Document, error) {
	decoded, err := url.QueryUnescape(doc)
	if err != nil {
		decoded = doc
	}
	var d Document
	if err := json.Unmarshal([]byte(decoded), &d); err != nil {
		return nil, errors.Wrap(err, "parsing trust policy document")
	}
	return &d, nil
}

// Encode renders the document as the JSON accepted by
// UpdateAssumeRolePolicy.
func (d *Document) Encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", errors.Wrap(err, "marshalling trust policy document")
	}
	return string(b), nil
}

// EncodeIndent renders the document for display.
func (d *Document) EncodeIndent() (string, error) {
	b, err := json.MarshalIndent(d, "", "   ")
	if err != nil {
		return "", errors.Wrap(err, "marshalling trust policy document")
	}
	return string(b), nil
}

// AllowsAssumeRole reports whether any Allow statement already names
// principalARN as an AWS principal. Both the bare string and list principal
// forms are detected.
func (d *Document) AllowsAssumeRole(principalARN string) bool {
	return d.hasEffectFor("Allow", principalARN)
}

// DeniesAssumeRole reports whether an explicit Deny statement names
// principalARN. A Deny wins during policy evaluation regardless of any
// Allow appended alongside it.
func (d *Document) DeniesAssumeRole(principalARN string) bool {
	return d.hasEffectFor("Deny", principalARN)
}

func (d *Document) hasEffectFor(effect, principalARN string) bool {
	for _, stmt := range d.Statement {
		if stmt.Effect != effect || stmt.Principal == nil {
			continue
		}
		if stmt.Principal.AWS.Contains(principalARN) {
			return true
		}
	}
	return false
}

// GrantAssumeRole appends an Allow statement for principalARN unless an
// Allow already names it. It reports whether the document was modified.
// Documents with no statements at all, including the empty document {},
// gain a statement list.
func (d *Document) GrantAssumeRole(principalARN string) bool {
	if d.AllowsAssumeRole(principalARN) {
		return false
	}
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	d.Statement = append(d.Statement, Statement{
		Effect:    "Allow",
		Principal: &Principal{AWS: StringOrSlice{principalARN}},
		Action:    StringOrSlice{AssumeRoleAction},
	})
	return true
}
