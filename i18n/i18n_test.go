package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr fallback")
	}
	if DetectLanguage("") != "fr" {
		t.Fatalf("expected default fr")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to fr translation if exists
	if T("es", "required") != "Requis" {
		t.Fatalf("expected fr fallback for es lang")
	}
}

func TestStatusLabels(t *testing.T) {
	if T("fr", "status.paid") != "Payée" {
		t.Fatalf("expected Payée")
	}
	if T("en", "status.unpaid") != "Unpaid" {
		t.Fatalf("expected Unpaid")
	}
}

func TestLangContext(t *testing.T) {
	ctx := WithLang(context.Background(), "en")
	if LangFromContext(ctx) != "en" {
		t.Fatalf("expected en from context")
	}
	if LangFromContext(context.Background()) != "fr" {
		t.Fatalf("expected default fr")
	}
	if !Supported("en") || Supported("es") {
		t.Fatalf("unexpected Supported result")
	}
}
