package sqlassets

import _ "embed"

//go:embed schema/core/tenants.sql
var TenantsSQL string

//go:embed schema/core/custom_fields.sql
var CustomFieldsSQL string

//go:embed schema/core/records.sql
var RecordsSQL string
