package constants

import (
	"strings"
)

type DocumentType string

const (
	LetterOfCredit        DocumentType = "Letter of Credit"
	CommercialInvoice     DocumentType = "Commercial Invoice"
	BillOfLading          DocumentType = "Bill of Lading"
	CertificateOfOrigin   DocumentType = "Certificate of Origin"
	PackingList           DocumentType = "Packing List"
	InsuranceCertificate  DocumentType = "Insurance Certificate"
	InspectionCertificate DocumentType = "Inspection Certificate"
	BillOfExchange        DocumentType = "Bill of Exchange"
	TransportDocument     DocumentType = "Transport Document"
	BankGuarantee         DocumentType = "Bank Guarantee"
	FumigationCertificate DocumentType = "Fumigation Certificate"
	HealthCertificate     DocumentType = "Health Certificate"
	WeightCertificate     DocumentType = "Weight Certificate"
	QualityAnalysis       DocumentType = "Quality Analysis"
	PaymentReceipt        DocumentType = "Payment Receipt"
	CustomsDeclaration    DocumentType = "Customs Declaration"
	FreightInvoice        DocumentType = "Freight Invoice"
	Certificate           DocumentType = "Certificate"
	Receipt               DocumentType = "Receipt"
	Declaration           DocumentType = "Declaration"

	// Unclassified is assigned to pages no signature entry matched.
	Unclassified DocumentType = "Unclassified Trade Document"
)

var allDocumentTypes = []DocumentType{
	LetterOfCredit,
	CommercialInvoice,
	BillOfLading,
	CertificateOfOrigin,
	PackingList,
	InsuranceCertificate,
	InspectionCertificate,
	BillOfExchange,
	TransportDocument,
	BankGuarantee,
	FumigationCertificate,
	HealthCertificate,
	WeightCertificate,
	QualityAnalysis,
	PaymentReceipt,
	CustomsDeclaration,
	FreightInvoice,
	Certificate,
	Receipt,
	Declaration,
	Unclassified,
}

// Canonicalize maps a user-supplied document type name or common abbreviation
// onto a known DocumentType. Unknown names are returned as-is with ok=false so
// custom catalog types still pass through.
func Canonicalize(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Unclassified, false
	}

	synonyms := map[string]DocumentType{
		"lc":      LetterOfCredit,
		"l/c":     LetterOfCredit,
		"invoice": CommercialInvoice,
		"bl":      BillOfLading,
		"b/l":     BillOfLading,
		"coo":     CertificateOfOrigin,
		"packing": PackingList,
		"draft":   BillOfExchange,
		"mtd":     TransportDocument,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == strings.ToLower(string(dt)) {
			return dt, true
		}
	}

	return DocumentType(strings.TrimSpace(input)), false
}
