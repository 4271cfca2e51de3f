// Package codec reads and writes the exchange folder's fixed XML schema:
// intake header/detail pairs on the way in, confirmation header/detail pairs
// on the way out. It is a pure marshalling layer; pairing, validation and
// relocation live elsewhere.
package codec

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pelorus-io/shipbridge/iox"
	"github.com/pelorus-io/shipbridge/types"
)

// headerDoc mirrors the intake header schema. Tag names are fixed by the
// exchange contract and must round-trip losslessly.
type headerDoc struct {
	XMLName        xml.Name `xml:"ProcessWeaverInHeader"`
	ShipmentID     string   `xml:"ShipmentID"`
	BOLNo          string   `xml:"BOLNo"`
	CarrierCode    string   `xml:"carriercode"`
	CarrierService string   `xml:"carrierservice"`
	CollType       string   `xml:"colltype"`
	IsCOD          string   `xml:"iscod"`
	Location       string   `xml:"location"`
	IsResidential  string   `xml:"isresidential"`
	OrderNo        string   `xml:"orderno"`
	OrderDate      string   `xml:"order_date"`
	PONumber       string   `xml:"ponumber"`
	ShipAddr1      string   `xml:"shipaddr1"`
	ShipAddr2      string   `xml:"shipaddr2"`
	ShipAddr3      string   `xml:"shipaddr3"`
	ShipCity       string   `xml:"shipcity"`
	ShipContact    string   `xml:"shipcontact"`
	ShipCountry    string   `xml:"shipcountry"`
	ShipDate       string   `xml:"shipdate"`
	ShipEmail      string   `xml:"shipemail"`
	ShipName       string   `xml:"shipname"`
	ShipPhone      string   `xml:"shipphone"`
	ShipState      string   `xml:"shipstate"`
	ShipViaCode    string   `xml:"shipviacode"`
	ShipZip        string   `xml:"shipzip"`
	Void           string   `xml:"void"`
	PKNumber       string   `xml:"pknumber"`
	CustomerCode   string   `xml:"customercode"`
	OptionalText1  string   `xml:"optionaltext001"`
	OptionalText9  string   `xml:"optionaltext009"`
	OptionalText10 string   `xml:"optionaltext010"`
	OrgID          string   `xml:"OrgID"`
	TrackingNumber string   `xml:"trackingNumber"`
	RateOnly       string   `xml:"RateOnly"`
}

type detailDoc struct {
	XMLName xml.Name   `xml:"ProcessWeaverInDetail"`
	Queue   []queueRow `xml:"InQueueDetail"`
}

type queueRow struct {
	ShipmentID    string `xml:"ShipmentID"`
	CODAmount     string `xml:"codAmount"`
	Comment       string `xml:"comment"`
	DeclaredValue string `xml:"declaredValue"`
	Height        string `xml:"height"`
	Length        string `xml:"length"`
	PackageID     string `xml:"packageID"`
	PackageNo     string `xml:"packageno"`
	Units         string `xml:"units"`
	Weight        string `xml:"weight"`
	Width         string `xml:"width"`
}

// DecodeHeader decodes an intake header document.
func DecodeHeader(r io.Reader) (*types.ShipmentHeader, error) {
	var doc headerDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	return &types.ShipmentHeader{
		ShipmentID:     strings.TrimSpace(doc.ShipmentID),
		BOLNo:          strings.TrimSpace(doc.BOLNo),
		CarrierCode:    strings.TrimSpace(doc.CarrierCode),
		CarrierService: strings.TrimSpace(doc.CarrierService),
		CollType:       strings.TrimSpace(doc.CollType),
		IsCOD:          strings.TrimSpace(doc.IsCOD),
		Location:       strings.TrimSpace(doc.Location),
		IsResidential:  strings.TrimSpace(doc.IsResidential),
		OrderNo:        strings.TrimSpace(doc.OrderNo),
		OrderDate:      strings.TrimSpace(doc.OrderDate),
		PONumber:       strings.TrimSpace(doc.PONumber),
		ShipAddr1:      strings.TrimSpace(doc.ShipAddr1),
		ShipAddr2:      strings.TrimSpace(doc.ShipAddr2),
		ShipAddr3:      strings.TrimSpace(doc.ShipAddr3),
		ShipCity:       strings.TrimSpace(doc.ShipCity),
		ShipContact:    strings.TrimSpace(doc.ShipContact),
		ShipCountry:    strings.TrimSpace(doc.ShipCountry),
		ShipDate:       strings.TrimSpace(doc.ShipDate),
		ShipEmail:      strings.TrimSpace(doc.ShipEmail),
		ShipName:       strings.TrimSpace(doc.ShipName),
		ShipPhone:      strings.TrimSpace(doc.ShipPhone),
		ShipState:      strings.TrimSpace(doc.ShipState),
		ShipViaCode:    strings.TrimSpace(doc.ShipViaCode),
		ShipZip:        strings.TrimSpace(doc.ShipZip),
		Void:           strings.TrimSpace(doc.Void),
		PKNumber:       strings.TrimSpace(doc.PKNumber),
		CustomerCode:   strings.TrimSpace(doc.CustomerCode),
		ContactPhone:   strings.TrimSpace(doc.OptionalText1),
		ShippingTerms:  strings.TrimSpace(doc.OptionalText9),
		CarrierAccount: strings.TrimSpace(doc.OptionalText10),
		OrgID:          strings.TrimSpace(doc.OrgID),
		TrackingNumber: strings.TrimSpace(doc.TrackingNumber),
		RateOnly:       strings.TrimSpace(doc.RateOnly),
	}, nil
}

// DecodeDetail decodes an intake detail document with one or more packages.
func DecodeDetail(r io.Reader) (*types.ShipmentDetail, error) {
	var doc detailDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode detail: %w", err)
	}

	detail := &types.ShipmentDetail{}
	for _, row := range doc.Queue {
		pkg := types.PackageDetail{
			ShipmentID:    strings.TrimSpace(row.ShipmentID),
			PackageID:     strings.TrimSpace(row.PackageID),
			PackageNo:     parseInt(row.PackageNo, 1),
			Weight:        parseFloat(row.Weight),
			Length:        parseFloat(row.Length),
			Width:         parseFloat(row.Width),
			Height:        parseFloat(row.Height),
			DeclaredValue: parseDecimal(row.DeclaredValue),
			CODAmount:     parseDecimal(row.CODAmount),
			Units:         strings.TrimSpace(row.Units),
			Comment:       strings.TrimSpace(row.Comment),
		}
		if pkg.Units == "" {
			pkg.Units = "LB"
		}
		detail.Packages = append(detail.Packages, pkg)
	}

	return detail, nil
}

// DecodeHeaderFile decodes the header half of a work unit from disk.
func DecodeHeaderFile(path string) (*types.ShipmentHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open header: %w", err)
	}
	defer iox.DiscardClose(f)
	return DecodeHeader(f)
}

// DecodeDetailFile decodes the detail half of a work unit from disk.
func DecodeDetailFile(path string) (*types.ShipmentDetail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detail: %w", err)
	}
	defer iox.DiscardClose(f)
	return DecodeDetail(f)
}

// parseFloat reads an exchange numeric field. Missing or malformed values
// decay to zero; the exchange pads numbers inconsistently.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string, fallback int) int {
	v := int(parseFloat(s))
	if v == 0 {
		return fallback
	}
	return v
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
