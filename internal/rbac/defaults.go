package rbac

// Capability tokens of the deployment. Each names one permitted action or
// resource area of the office panel.
const (
	PermRandevu  = "randevu"
	PermZiyaret  = "ziyaret"
	PermEnvanter = "envanter"
	PermMuhtar   = "muhtar"
	PermArac     = "arac"
	PermPersonel = "personel"
	PermRapor    = "rapor"
)

// DefaultCatalog returns the deployment's static role table. Loaded at
// process start; there is no runtime mutation path.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string][]string{
		"admin":   {PermAll},
		"idari":   {PermRandevu, PermZiyaret, PermEnvanter, PermMuhtar, PermPersonel, PermRapor},
		"danisma": {PermRandevu, PermZiyaret},
		"depo":    {PermEnvanter, PermArac},
	})
}
