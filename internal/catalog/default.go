package catalog

import "github.com/joseph-ayodele/lcsplit/constants"

// defaultEntries is the trade-finance taxonomy in priority order: specific
// documents first, generic certificate/receipt/declaration last.
var defaultEntries = []Entry{
	{string(constants.LetterOfCredit), []string{"letter of credit", "documentary credit", "l/c no", "lc no", "credit no", "issuing bank", "beneficiary"}, 0.95},
	{string(constants.CommercialInvoice), []string{"commercial invoice", "invoice no", "inv no", "seller", "buyer", "invoice date"}, 0.9},
	{string(constants.BillOfLading), []string{"bill of lading", "b/l no", "bl no", "shipper", "consignee", "vessel", "ocean bill"}, 0.9},
	{string(constants.CertificateOfOrigin), []string{"certificate of origin", "origin certificate", "country of origin", "chamber of commerce"}, 0.9},
	{string(constants.PackingList), []string{"packing list", "package list", "gross weight", "net weight", "dimensions", "packages"}, 0.85},
	{string(constants.InsuranceCertificate), []string{"insurance certificate", "policy no", "marine insurance", "cargo insurance", "coverage"}, 0.8},
	{string(constants.InspectionCertificate), []string{"inspection certificate", "survey certificate", "quality certificate", "test certificate"}, 0.8},
	{string(constants.BillOfExchange), []string{"bill of exchange", "draft", "drawer", "drawee", "payee", "tenor"}, 0.8},
	{string(constants.TransportDocument), []string{"transport document", "multimodal transport", "combined transport", "freight receipt"}, 0.75},
	{string(constants.BankGuarantee), []string{"bank guarantee", "guarantee no", "guarantor", "performance guarantee"}, 0.8},
	{string(constants.FumigationCertificate), []string{"fumigation certificate", "phytosanitary", "plant health", "pest control"}, 0.8},
	{string(constants.HealthCertificate), []string{"health certificate", "sanitary certificate", "veterinary certificate"}, 0.8},
	{string(constants.WeightCertificate), []string{"weight certificate", "weighing certificate", "scale certificate"}, 0.75},
	{string(constants.QualityAnalysis), []string{"quality analysis", "laboratory report", "test results", "chemical analysis"}, 0.75},
	{string(constants.PaymentReceipt), []string{"payment receipt", "receipt no", "payment confirmation", "remittance"}, 0.7},
	{string(constants.CustomsDeclaration), []string{"customs declaration", "export declaration", "import declaration"}, 0.75},
	{string(constants.FreightInvoice), []string{"freight invoice", "shipping charges", "freight charges"}, 0.7},
	{string(constants.Certificate), []string{"certificate", "certification", "certified"}, 0.6},
	{string(constants.Receipt), []string{"receipt", "acknowledgment"}, 0.5},
	{string(constants.Declaration), []string{"declaration", "statement"}, 0.5},
}

// Default returns the built-in trade-finance catalog.
func Default() *Catalog {
	c, err := New(defaultEntries)
	if err != nil {
		// the built-in table is static; failing here is a programming error
		panic(err)
	}
	return c
}
