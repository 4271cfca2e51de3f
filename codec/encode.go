package codec

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/ledger"
)

// ShipFrom is the warehouse origin block echoed into every confirmation
// header. It comes from configuration, not from the remote system.
type ShipFrom struct {
	AccountNo string
	Name      string
	Addr1     string
	Addr2     string
	Addr3     string
	Addr4     string
	City      string
	State     string
	Zip       string
	Country   string
	Contact   string
	Phone     string
}

// emptyField is the placeholder legacy consumers expect inside empty tags.
// A truly empty element breaks their reader.
const emptyField = "\n        "

type outHeaderDoc struct {
	XMLName xml.Name       `xml:"SmartlincOutHeader"`
	Header  outQueueHeader `xml:"OutQueueHeader"`
}

type outQueueHeader struct {
	ShipmentID     string `xml:"ShipmentID"`
	PShipmentID    string `xml:"P_ShipmentID"`
	Void           string `xml:"void"`
	ErrorMessage   string `xml:"errormessage"`
	CarrierCode    string `xml:"carriercode"`
	CarrierService string `xml:"carrierservice"`
	ShipVia        string `xml:"shipvia"`
	TrackingNumber string `xml:"trackingNumber"`
	ShipDate       string `xml:"shipDate"`
	ShipToID       string `xml:"shiptoID"`
	ShipName       string `xml:"shipName"`
	ShipAddr1      string `xml:"shipAddr1"`
	ShipAddr2      string `xml:"shipAddr2"`
	ShipAddr3      string `xml:"shipAddr3"`
	ShipCity       string `xml:"shipCity"`
	ShipState      string `xml:"shipState"`
	ShipCountry    string `xml:"shipCountry"`
	ShipZip        string `xml:"shipzip"`
	ShipContact    string `xml:"shipContact"`
	ShipPhone      string `xml:"shipPhone"`
	ShipEmail      string `xml:"shipEmail"`
	IsCOD          string `xml:"isCOD"`
	IsResidential  string `xml:"isResidential"`
	Reference      string `xml:"reference"`
	CollType       string `xml:"colltype"`
	ShipperCost    string `xml:"shipperCost"`
	ActualCost     string `xml:"actualCost"`
	CustomerCharge string `xml:"customerCharge"`
	TPAccountNo    string `xml:"tpAccountno"`
	TPName         string `xml:"tpName"`
	TPAddr1        string `xml:"tpAddr1"`
	TPAddr2        string `xml:"tpAddr2"`
	TPAddr3        string `xml:"tpAddr3"`
	TPCity         string `xml:"tpCity"`
	TPState        string `xml:"tpState"`
	TPZip          string `xml:"tpZip"`
	TPCountry      string `xml:"tpCountry"`
	TPContact      string `xml:"tpContact"`
	TPPhone        string `xml:"tpPhone"`
	SFAccountNo    string `xml:"SFACCOUNTNO"`
	SFName         string `xml:"sfName"`
	SFAddr1        string `xml:"sfAddr1"`
	SFAddr2        string `xml:"sfAddr2"`
	SFAddr3        string `xml:"sfAddr3"`
	SFAddr4        string `xml:"sfAddr4"`
	SFCity         string `xml:"sfCity"`
	SFState        string `xml:"sfState"`
	SFZip          string `xml:"sfZip"`
	SFCountry      string `xml:"sfCountry"`
	SFContact      string `xml:"sfContact"`
	SFPhone        string `xml:"sfPhone"`
}

type outDetailDoc struct {
	XMLName xml.Name     `xml:"SmartlincOutDetail"`
	Lines   []detailLine `xml:"DetailLine"`
}

type detailLine struct {
	ShipmentID     string `xml:"ShipmentID"`
	PShipmentID    string `xml:"P_ShipmentID"`
	PackageID      string `xml:"packageID"`
	PackageNo      string `xml:"packageno"`
	Weight         string `xml:"weight"`
	Length         string `xml:"length"`
	Width          string `xml:"width"`
	Height         string `xml:"height"`
	DeclaredValue  string `xml:"declaredValue"`
	CODAmount      string `xml:"codAmount"`
	Units          string `xml:"units"`
	PackageCost    string `xml:"packageCost"`
	TrackingNumber string `xml:"trackingNumber"`
	Comment        string `xml:"comment"`
}

// WriteConfirmation generates the confirmation header/detail pair for a
// completed shipment, merging the original ledger snapshot with the remote
// shipment's tracking, carrier and date fields.
//
// Returns the paths of the two written files.
func WriteConfirmation(outDir string, entry *ledger.Entry, shipment *gateway.Shipment, shipFrom ShipFrom, now time.Time) (string, string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	stamp := now.Format("20060102_150405")
	headerPath := filepath.Join(outDir, fmt.Sprintf("HEADEROUT_%s_%s.XML", entry.ShipmentID, stamp))
	detailPath := filepath.Join(outDir, fmt.Sprintf("DETAILOUT_%s_%s.XML", entry.ShipmentID, stamp))

	headerDoc := buildOutHeader(entry, shipment, shipFrom)
	if err := writeXML(headerDoc, headerPath); err != nil {
		return "", "", err
	}

	detailDoc := buildOutDetail(entry, shipment)
	if err := writeXML(detailDoc, detailPath); err != nil {
		return "", "", err
	}

	return headerPath, detailPath, nil
}

func buildOutHeader(entry *ledger.Entry, shipment *gateway.Shipment, sf ShipFrom) *outHeaderDoc {
	shipTo := entry.ShipTo

	residential := "0"
	if shipTo.Residential {
		residential = "1"
	}
	collType := entry.CollType
	if collType == "" {
		collType = "S"
	}
	isCOD := entry.IsCOD
	if isCOD == "" {
		isCOD = "0"
	}

	return &outHeaderDoc{Header: outQueueHeader{
		ShipmentID:     pad(entry.ShipmentID),
		PShipmentID:    pad(entry.OrderNumber),
		Void:           pad("N"),
		ErrorMessage:   pad(""),
		CarrierCode:    pad(shipment.CarrierCode),
		CarrierService: pad(shipment.ServiceCode),
		ShipVia:        pad(entry.ShipVia),
		TrackingNumber: pad(shipment.TrackingNumber),
		ShipDate:       pad(toYYYYMMDD(shipment.ShipDate)),
		ShipToID:       pad(shipTo.Company),
		ShipName:       pad(shipTo.Name),
		ShipAddr1:      pad(shipTo.Street1),
		ShipAddr2:      pad(shipTo.Street2),
		ShipAddr3:      pad(shipTo.Street3),
		ShipCity:       pad(shipTo.City),
		ShipState:      pad(shipTo.State),
		ShipCountry:    pad(shipTo.Country),
		ShipZip:        pad(shipTo.PostalCode),
		ShipContact:    pad(""),
		ShipPhone:      pad(shipTo.Phone),
		ShipEmail:      pad(shipTo.Email),
		IsCOD:          pad(isCOD),
		IsResidential:  pad(residential),
		Reference:      pad(""),
		CollType:       pad(collType),
		ShipperCost:    pad("0.0000"),
		ActualCost:     pad(""),
		CustomerCharge: pad(""),
		TPAccountNo:    pad(""),
		TPName:         pad(""),
		TPAddr1:        pad(""),
		TPAddr2:        pad(""),
		TPAddr3:        pad(""),
		TPCity:         pad(""),
		TPState:        pad(""),
		TPZip:          pad(""),
		TPCountry:      pad(""),
		TPContact:      pad(""),
		TPPhone:        pad(""),
		SFAccountNo:    pad(sf.AccountNo),
		SFName:         pad(sf.Name),
		SFAddr1:        pad(sf.Addr1),
		SFAddr2:        pad(sf.Addr2),
		SFAddr3:        pad(sf.Addr3),
		SFAddr4:        pad(sf.Addr4),
		SFCity:         pad(sf.City),
		SFState:        pad(sf.State),
		SFZip:          pad(sf.Zip),
		SFCountry:      pad(sf.Country),
		SFContact:      pad(sf.Contact),
		SFPhone:        pad(sf.Phone),
	}}
}

func buildOutDetail(entry *ledger.Entry, shipment *gateway.Shipment) *outDetailDoc {
	doc := &outDetailDoc{}
	tracking := shipment.TrackingNumber

	if len(entry.Packages) == 0 {
		// No package snapshot survived; emit one minimal line from the
		// remote shipment's own measurements.
		doc.Lines = append(doc.Lines, fallbackLine(entry, shipment, tracking))
		return doc
	}

	for _, pkg := range entry.Packages {
		units := pkg.Units
		if units == "" {
			units = "LB"
		}
		doc.Lines = append(doc.Lines, detailLine{
			ShipmentID:     pad(entry.ShipmentID),
			PShipmentID:    pad(entry.OrderNumber),
			PackageID:      pad(pkg.PackageID),
			PackageNo:      pad(strconv.Itoa(pkg.PackageNo)),
			Weight:         pad(fmtPhysical(pkg.Weight)),
			Length:         pad(fmtPhysical(pkg.Length)),
			Width:          pad(fmtPhysical(pkg.Width)),
			Height:         pad(fmtPhysical(pkg.Height)),
			DeclaredValue:  pad(fmtMoney(pkg.DeclaredValue)),
			CODAmount:      pad(fmtMoney(pkg.CODAmount)),
			Units:          pad(units),
			PackageCost:    pad("0.0"),
			TrackingNumber: pad(tracking),
			Comment:        pad(pkg.Comment),
		})
	}
	return doc
}

func fallbackLine(entry *ledger.Entry, shipment *gateway.Shipment, tracking string) detailLine {
	var weight float64
	if shipment.Weight != nil {
		weight = shipment.Weight.Value
		if shipment.Weight.Units == "ounces" && weight != 0 {
			weight /= 16.0
		}
	}
	var length, width, height float64
	if shipment.Dimensions != nil {
		length = shipment.Dimensions.Length
		width = shipment.Dimensions.Width
		height = shipment.Dimensions.Height
	}

	return detailLine{
		ShipmentID:     pad(entry.ShipmentID),
		PShipmentID:    pad(entry.OrderNumber),
		PackageID:      pad(""),
		PackageNo:      pad("1"),
		Weight:         pad(fmtPhysical(weight)),
		Length:         pad(fmtPhysical(length)),
		Width:          pad(fmtPhysical(width)),
		Height:         pad(fmtPhysical(height)),
		DeclaredValue:  pad("0.0000"),
		CODAmount:      pad("0.0000"),
		Units:          pad("LB"),
		PackageCost:    pad("0.0"),
		TrackingNumber: pad(tracking),
		Comment:        pad(""),
	}
}

// pad substitutes the legacy whitespace placeholder for empty values.
func pad(s string) string {
	if s == "" {
		return emptyField
	}
	return s
}

// toYYYYMMDD reduces an ISO date-time (2026-02-18T11:34:18.000) to YYYYMMDD.
func toYYYYMMDD(iso string) string {
	if len(iso) < 10 {
		return ""
	}
	date := iso[:10]
	return date[:4] + date[5:7] + date[8:10]
}

// fmtPhysical renders weight and dimensions at the exchange's fixed
// six-decimal precision.
func fmtPhysical(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// fmtMoney renders monetary amounts at four decimal places.
func fmtMoney(d decimal.Decimal) string {
	return d.StringFixed(4)
}

func writeXML(doc any, path string) error {
	data, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
