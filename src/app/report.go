package app

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

const reportTemplate = `## 🏙️ 유니시티 프리미엄 매물 비교 분석 결과

본 분석은 여여부동산 박혜경 대표의 실무 데이터를 기반으로 작성된 맞춤 리포트입니다.

### 1. 공간별 컨디션 대조
- **좌측 매물 ({{.Left.Complex}} {{.Left.Type}}):** {{.Left.Space}} 영역의 마감 상태가 매우 우수하며, 세련된 무드를 제공합니다.
- **우측 매물 ({{.Right.Complex}} {{.Right.Type}}):** {{.Right.Space}} 기준으로 개방감이 뛰어나며 실거주 편의성이 극대화된 구조입니다.

### 2. 단지별 특이점
{{.Left.Complex}}와 {{.Right.Complex}}는 각각의 조경 및 커뮤니티 접근성에서 차이가 있습니다. 선택하신 두 매물은 모두 {{.Left.Space}}라는 핵심 공간에서 각기 다른 매력을 보유하고 있습니다.

### 3. 전문가 총평
비교하신 두 매물은 유니시티 내에서도 상위 컨디션을 유지하고 있는 매물들입니다. 가족 구성원의 동선과 선호하시는 인테리어 톤에 따라 최적의 선택이 가능합니다.

---
**📞 상담 및 현장 방문 예약: {{.Contact}}**`

// ReportGenerator renders the canned comparison report for a pair of images.
type ReportGenerator struct {
	delay   time.Duration
	contact string
	tmpl    *template.Template
}

func NewReportGenerator(delay time.Duration, contact string) *ReportGenerator {
	if delay < 0 {
		delay = 0
	}
	return &ReportGenerator{
		delay:   delay,
		contact: contact,
		tmpl:    template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// Render formats the report immediately.
func (g *ReportGenerator) Render(left, right ImageRecord) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Left, Right ImageRecord
		Contact     string
	}{left, right, g.contact}
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("can not render report: %w", err)
	}
	return buf.String(), nil
}

// Generate waits for the configured delay and returns the report. A caller
// that goes away before then gets ctx.Err() and the report is dropped.
func (g *ReportGenerator) Generate(ctx context.Context, left, right ImageRecord) (string, error) {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return g.Render(left, right)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
