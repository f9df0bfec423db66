package pdfa

import (
	"time"

	"github.com/beevik/etree"
)

// XMP namespace URIs used in the archival metadata packet.
const (
	nsRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsPDFAID = "http://www.aiim.org/pdfa/ns/id/"
	nsDC     = "http://purl.org/dc/elements/1.1/"
	nsXMP    = "http://ns.adobe.com/xap/1.0/"
	nsXMPMM  = "http://ns.adobe.com/xap/1.0/mm/"
	nsPDF    = "http://ns.adobe.com/pdf/1.3/"
)

// xmpPacket builds the XMP metadata packet identifying the file as
// PDF/A-2b and mirroring the document information dictionary. The
// packet must agree with the info dictionary for conformance.
func xmpPacket(info Info, docID string) []byte {
	d := etree.NewDocument()
	d.CreateProcInst("xpacket", `begin="" id="W5M0MpCehiHzreSzNTczkc9d"`)

	meta := d.CreateElement("x:xmpmeta")
	meta.CreateAttr("xmlns:x", "adobe:ns:meta/")
	rdf := meta.CreateElement("rdf:RDF")
	rdf.CreateAttr("xmlns:rdf", nsRDF)

	id := description(rdf, "pdfaid", nsPDFAID)
	id.CreateElement("pdfaid:part").SetText("2")
	id.CreateElement("pdfaid:conformance").SetText("B")

	dc := description(rdf, "dc", nsDC)
	if info.Title != "" {
		alt := dc.CreateElement("dc:title").CreateElement("rdf:Alt")
		li := alt.CreateElement("rdf:li")
		li.CreateAttr("xml:lang", "x-default")
		li.SetText(info.Title)
	}
	if info.Author != "" {
		seq := dc.CreateElement("dc:creator").CreateElement("rdf:Seq")
		seq.CreateElement("rdf:li").SetText(info.Author)
	}
	if info.Subject != "" {
		alt := dc.CreateElement("dc:description").CreateElement("rdf:Alt")
		li := alt.CreateElement("rdf:li")
		li.CreateAttr("xml:lang", "x-default")
		li.SetText(info.Subject)
	}

	created := info.Created.UTC().Format(time.RFC3339)
	xmp := description(rdf, "xmp", nsXMP)
	xmp.CreateElement("xmp:CreateDate").SetText(created)
	xmp.CreateElement("xmp:ModifyDate").SetText(created)
	if info.Creator != "" {
		xmp.CreateElement("xmp:CreatorTool").SetText(info.Creator)
	}

	mm := description(rdf, "xmpMM", nsXMPMM)
	mm.CreateElement("xmpMM:DocumentID").SetText(docID)
	mm.CreateElement("xmpMM:InstanceID").SetText(docID)

	if info.Creator != "" {
		pdf := description(rdf, "pdf", nsPDF)
		pdf.CreateElement("pdf:Producer").SetText(info.Creator)
	}

	d.CreateProcInst("xpacket", `end="r"`)
	d.Indent(2)
	out, _ := d.WriteToBytes()
	return out
}

func description(rdf *etree.Element, prefix, ns string) *etree.Element {
	desc := rdf.CreateElement("rdf:Description")
	desc.CreateAttr("rdf:about", "")
	desc.CreateAttr("xmlns:"+prefix, ns)
	return desc
}
