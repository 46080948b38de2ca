package modtype

import (
	"testing"

	"github.com/matzehuels/nodehealth/pkg/manifest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Type
	}{
		{"bare main", `{"name":"a","main":"index.js"}`, CJS},
		{"nothing", `{"name":"a"}`, CJS},
		{"explicit commonjs", `{"name":"a","type":"commonjs"}`, CJS},
		{"type module", `{"name":"a","type":"module"}`, ESM},
		{"type module with cjs main", `{"name":"a","type":"module","main":"index.cjs"}`, CJS},
		{"mjs main", `{"name":"a","main":"index.mjs"}`, ESM},
		{"legacy module field", `{"name":"a","main":"index.js","module":"index.esm.js"}`, Dual},
		{"exports import only", `{"name":"a","exports":{".":{"import":"./index.js"}}}`, ESM},
		{"exports require only", `{"name":"a","exports":{".":{"require":"./index.js"}}}`, CJS},
		{"exports dual", `{"name":"a","exports":{".":{"types":"./i.d.ts","import":"./i.mjs","require":"./i.cjs"}}}`, Dual},
		{"exports string js commonjs", `{"name":"a","exports":"./index.js"}`, CJS},
		{"exports string js module", `{"name":"a","type":"module","exports":"./index.js"}`, ESM},
		{"exports mixed extensions", `{"name":"a","exports":{".":"./i.mjs","./legacy":"./l.cjs"}}`, Dual},
		{"exports types only falls back", `{"name":"a","type":"module","exports":{".":{"types":"./i.d.ts"}}}`, ESM},
		{"exports array", `{"name":"a","exports":{".":["./i.mjs"]}}`, ESM},
		{"exports import cjs extension", `{"name":"a","exports":{".":{"import":"./i.cjs"}}}`, ESM},
		{"exports require mjs extension", `{"name":"a","type":"module","exports":{".":{"require":"./i.mjs"}}}`, CJS},
		{"exports nested default under import", `{"name":"a","exports":{".":{"import":{"types":"./i.d.ts","default":"./i.js"}}}}`, ESM},
		{"exports default condition uses extension", `{"name":"a","exports":{".":{"default":"./i.js"}}}`, CJS},
		{"exports import js with require js", `{"name":"a","exports":{".":{"import":"./i.js","require":"./i.js"}}}`, Dual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := manifest.Parse([]byte(tt.content))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := Classify(d); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
