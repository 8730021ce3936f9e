package verifyapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/twyair/verification-project/internal/config"
)

// identitySource is the Parser's JSON AST for
// `int id(int x) { requires(true); ensures(ret == x); return x; }`,
// written out by hand in the same shape ast.Node.UnmarshalJSON expects
// (spec.md §6's Parser is an external black-box collaborator with no
// implementation in this module to produce this document from source
// text).
const identitySource = `{
  "type": "function_definition",
  "children": [
    {"type": "int", "text": "int"},
    {
      "type": "direct_declarator",
      "children": [
        {"type": "IDENTIFIER", "text": "id"},
        {"type": "(", "text": "("},
        {
          "type": "parameter_list",
          "children": [
            {
              "type": "parameter_declaration",
              "children": [
                {"type": "int", "text": "int"},
                {"type": "IDENTIFIER", "text": "x"}
              ]
            }
          ]
        }
      ]
    },
    {
      "type": "compound_statement",
      "children": [
        {
          "type": "block_item_list",
          "children": [
            {
              "type": "expression_statement",
              "children": [
                {
                  "type": "postfix_expression",
                  "children": [
                    {"type": "IDENTIFIER", "text": "requires"},
                    {"type": "(", "text": "("},
                    {"type": "IDENTIFIER", "text": "true"},
                    {"type": ")", "text": ")"}
                  ]
                },
                {"type": ";", "text": ";"}
              ]
            },
            {
              "type": "expression_statement",
              "children": [
                {
                  "type": "postfix_expression",
                  "children": [
                    {"type": "IDENTIFIER", "text": "ensures"},
                    {"type": "(", "text": "("},
                    {
                      "type": "equality_expression",
                      "children": [
                        {"type": "IDENTIFIER", "text": "ret"},
                        {"type": "op", "text": "=="},
                        {"type": "IDENTIFIER", "text": "x"}
                      ]
                    },
                    {"type": ")", "text": ")"}
                  ]
                },
                {"type": ";", "text": ";"}
              ]
            },
            {
              "type": "jump_statement",
              "children": [
                {"type": "return", "text": "return"},
                {"type": "IDENTIFIER", "text": "x"}
              ]
            }
          ]
        }
      ]
    }
  ]
}`

func TestVerifyUsesStubBackendByDefault(t *testing.T) {
	if !json.Valid([]byte(identitySource)) {
		t.Fatalf("identitySource is not valid JSON")
	}
	res, err := Verify(context.Background(), []byte(identitySource), Options{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.FunctionName != "id" {
		t.Fatalf("FunctionName = %q, want \"id\"", res.FunctionName)
	}
	if !res.Outcome.IsOk() {
		t.Fatalf("expected Ok, got %#v (errors: %v)", res.Outcome, res.Errors)
	}
}

func TestVerifyRejectsMalformedJSON(t *testing.T) {
	_, err := Verify(context.Background(), []byte("not json"), Options{})
	if err == nil {
		t.Fatalf("expected an error decoding malformed input")
	}
}

func TestVerifyRejectsUnknownSolverBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Solver = "magic"
	_, _, err := newDriver(cfg)
	if err == nil {
		t.Fatalf("expected an error for an unknown solver backend")
	}
}
