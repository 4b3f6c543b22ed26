package parser

import (
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

type pdfScan struct {
	pages  int
	images bool
}

// inspectPDF counts pages and looks for image XObjects. A file pdfcpu cannot
// read is reported as having images so OCR still gets a chance.
func inspectPDF(path string) pdfScan {
	f, err := os.Open(path)
	if err != nil {
		return pdfScan{images: true}
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return pdfScan{images: true}
	}
	scan := pdfScan{pages: ctx.PageCount}

	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				scan.images = true
				return scan
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				scan.images = true
				return scan
			}
		}
	}
	return scan
}
