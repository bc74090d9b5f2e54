package oned

import (
	grayscan "github.com/emarkov/grayscan"
)

func init() {
	// The EAN-13 matcher covers UPC-A as well; the registry
	// instantiates it once even when both formats are enabled.
	grayscan.RegisterMatcher(grayscan.FormatEAN13, newEAN13Matcher)
	grayscan.RegisterMatcher(grayscan.FormatUPCA, newEAN13Matcher)
	grayscan.RegisterMatcher(grayscan.FormatCode128, newCode128Matcher)
	grayscan.RegisterMatcher(grayscan.FormatCode39, newCode39Matcher)
	grayscan.RegisterMatcher(grayscan.FormatITF, newITFMatcher)
}
