// Package i18n holds the UI and document translations. French is the default.
package i18n

import (
	"context"
	"strings"
)

const DefaultLang = "fr"

type ctxKey struct{}

var messages = map[string]map[string]string{
	"fr": {
		"required":                 "Requis",
		"too_long":                 "Trop long",
		"too_short":                "Trop court",
		"out_of_range":             "Hors limites",
		"invalid":                  "Invalide",
		"invalid_email":            "Email invalide",
		"name.too_long":            "Le nom ne peut pas dépasser 60 caractères.",
		"status.draft":             "Brouillon",
		"status.pending":           "En attente",
		"status.paid":              "Payée",
		"status.cancelled":         "Annulée",
		"status.unpaid":            "Impayée",
		"status.undefined":         "Indéfini",
		"invoice":                  "Facture",
		"invoices":                 "Factures",
		"invoice.not_found":        "Facture non trouvée",
		"invoice.saved":            "Facture sauvegardée",
		"invoice.deleted":          "Facture supprimée",
		"invoice.save_failed":      "Erreur lors de la sauvegarde de votre facture",
		"invoice.delete_failed":    "Erreur lors de la suppression de la facture",
		"invoice.confirm_delete":   "Êtes-vous sûr de vouloir supprimer cette facture ?",
		"invoice.export_failed":    "Erreur lors de la génération du PDF",
		"issuer":                   "Émetteur",
		"client":                   "Client",
		"date":                     "Date",
		"due_date":                 "Échéance",
		"description":              "Description",
		"quantity":                 "Quantité",
		"unit_price":               "Prix unitaire",
		"total":                    "Total",
		"total_ht":                 "Total Hors Taxes",
		"vat":                      "TVA",
		"total_ttc":                "Total TTC",
		"save":                     "Sauvegarder",
		"delete":                   "Supprimer",
		"unauthorized":             "Non autorisé",
		"login.invalid":            "Email ou mot de passe invalide",
		"signup.exists":            "Cet email est déjà utilisé",
		"invoice.save_in_progress": "Une sauvegarde est déjà en cours",
		"invoice.nothing_to_save":  "Aucune modification à sauvegarder",
		"invoice.unsaved":          "Modifications non sauvegardées",
		"invoice.none":             "Aucune facture pour le moment",
		"invoice.new":              "Nouvelle facture",
		"invoice.export":           "Exporter en PDF",
		"error.internal":           "Une erreur est survenue",
		"error.bad_request":        "Requête invalide",
		"validation_failed":        "Certains champs sont invalides",
		"name":                     "Nom",
		"email":                    "Email",
		"password":                 "Mot de passe",
		"status":                   "Statut",
		"vat_active":               "TVA applicable",
		"vat_rate":                 "Taux de TVA (%)",
		"issuer_address":           "Adresse de l'émetteur",
		"client_address":           "Adresse du client",
		"invoice_date":             "Date de facture",
		"lines":                    "Lignes",
		"add_line":                 "Ajouter une ligne",
		"update":                   "Mettre à jour",
		"remove":                   "Retirer",
		"apply":                    "Appliquer",
		"discard":                  "Annuler les modifications",
		"create":                   "Créer",
		"confirm":                  "Je confirme",
		"back":                     "Retour",
		"login":                    "Connexion",
		"signup":                   "Inscription",
		"logout":                   "Déconnexion",
	},
	"en": {
		"required":                 "Required",
		"too_long":                 "Too long",
		"too_short":                "Too short",
		"out_of_range":             "Out of range",
		"invalid":                  "Invalid",
		"invalid_email":            "Invalid email",
		"name.too_long":            "The name cannot exceed 60 characters.",
		"status.draft":             "Draft",
		"status.pending":           "Pending",
		"status.paid":              "Paid",
		"status.cancelled":         "Cancelled",
		"status.unpaid":            "Unpaid",
		"status.undefined":         "Undefined",
		"invoice":                  "Invoice",
		"invoices":                 "Invoices",
		"invoice.not_found":        "Invoice not found",
		"invoice.saved":            "Invoice saved",
		"invoice.deleted":          "Invoice deleted",
		"invoice.save_failed":      "Could not save the invoice",
		"invoice.delete_failed":    "Could not delete the invoice",
		"invoice.confirm_delete":   "Are you sure you want to delete this invoice?",
		"invoice.export_failed":    "Could not generate the PDF",
		"issuer":                   "Issuer",
		"client":                   "Client",
		"date":                     "Date",
		"due_date":                 "Due date",
		"description":              "Description",
		"quantity":                 "Quantity",
		"unit_price":               "Unit price",
		"total":                    "Total",
		"total_ht":                 "Total excl. tax",
		"vat":                      "VAT",
		"total_ttc":                "Total incl. tax",
		"save":                     "Save",
		"delete":                   "Delete",
		"unauthorized":             "Unauthorized",
		"login.invalid":            "Invalid email or password",
		"signup.exists":            "This email is already registered",
		"invoice.save_in_progress": "A save is already in progress",
		"invoice.nothing_to_save":  "No changes to save",
		"invoice.unsaved":          "Unsaved changes",
		"invoice.none":             "No invoices yet",
		"invoice.new":              "New invoice",
		"invoice.export":           "Export to PDF",
		"error.internal":           "Something went wrong",
		"error.bad_request":        "Bad request",
		"validation_failed":        "Some fields are invalid",
		"name":                     "Name",
		"email":                    "Email",
		"password":                 "Password",
		"status":                   "Status",
		"vat_active":               "VAT applies",
		"vat_rate":                 "VAT rate (%)",
		"issuer_address":           "Issuer address",
		"client_address":           "Client address",
		"invoice_date":             "Invoice date",
		"lines":                    "Lines",
		"add_line":                 "Add line",
		"update":                   "Update",
		"remove":                   "Remove",
		"apply":                    "Apply",
		"discard":                  "Discard changes",
		"create":                   "Create",
		"confirm":                  "I confirm",
		"back":                     "Back",
		"login":                    "Log in",
		"signup":                   "Sign up",
		"logout":                   "Log out",
	},
}

// T translates code for lang, falling back to French and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks "en" when an Accept-Language header starts with English,
// otherwise French.
func DetectLanguage(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first = strings.ToLower(strings.TrimSpace(first))
	if strings.HasPrefix(first, "en") {
		return "en"
	}
	return DefaultLang
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the language set by WithLang, or the default.
func LangFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
