package tables

import "testing"

func TestValidSlug(t *testing.T) {
	valid := []string{"contract", "clin", "object-type", "approve-contract", "a1", "x9-y2"}
	for _, s := range valid {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "Contract", "con_tract", "-contract", "contract-", "con--tract", "con tract", "con.tract"}
	for _, s := range invalid {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}

func TestRegistry(t *testing.T) {
	tests := []struct {
		namespace, kind, expected string
	}{
		{"captify", KindObjectType, "captify-ontology-object-type"},
		{"captify", KindLinkType, "captify-ontology-link-type"},
		{"captify", KindActionType, "captify-ontology-action-type"},
		{"acme", KindObjectType, "acme-ontology-object-type"},
	}
	for _, tt := range tests {
		if got := Registry(tt.namespace, tt.kind); got != tt.expected {
			t.Errorf("Registry(%q, %q) = %q, want %q", tt.namespace, tt.kind, got, tt.expected)
		}
	}
}

func TestInstance(t *testing.T) {
	if got := Instance("captify", "pmbook", "contract"); got != "captify-pmbook-contract" {
		t.Errorf("expected 'captify-pmbook-contract', got %q", got)
	}
	if got := Instance("acme", "crm", "customer"); got != "acme-crm-customer" {
		t.Errorf("expected 'acme-crm-customer', got %q", got)
	}
}

func TestIsRegistryKind(t *testing.T) {
	for _, kind := range []string{KindObjectType, KindLinkType, KindActionType} {
		if !IsRegistryKind(kind) {
			t.Errorf("expected %q to be a registry kind", kind)
		}
	}
	if IsRegistryKind("contract") {
		t.Error("expected 'contract' to not be a registry kind")
	}
}

func TestIndex(t *testing.T) {
	if got := Index("contractId"); got != "contractId-index" {
		t.Errorf("expected 'contractId-index', got %q", got)
	}
}
