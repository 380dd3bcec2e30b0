package knowledge

// ExecutiveAgent is the rule-base key the report synthesizer reads.
const ExecutiveAgent = "executive"

// defaultKB ships the baseline policy rules so the system works without an
// external rule file. Metric keys: dso, dpo, ccc, ar_to_ap (all lowercase).
const defaultKB = `
agents:
  executive:
    rules:
      - id: R_AR_001
        name: Slow collections
        conditions:
          - metric: dso
            op: ">"
            value: 45
        recommendation: "Tighten collections: prioritize calls on the largest overdue balances and review credit terms for repeat late payers."
        orders:
          - title: "Run a collections sprint on the top overdue customers"
            owner: "collections"
            kpi: "dso"
            due: "7d"
            impact: "cash inflow"
      - id: R_AP_001
        name: Paying too fast
        conditions:
          - metric: dpo
            op: "<"
            value: 40
        recommendation: "Renegotiate supplier terms or schedule payments closer to their due dates; early payment is unpriced financing given away."
        orders:
          - title: "Review payment scheduling against supplier due dates"
            owner: "payables"
            kpi: "dpo"
            due: "14d"
            impact: "cash retention"
      - id: R_CCC_001
        name: Long cash cycle
        conditions:
          - metric: ccc
            op: ">"
            value: 20
        recommendation: "The cash conversion cycle is funding customers longer than suppliers fund you; close the gap from both sides."
        orders:
          - title: "Set a weekly cash cycle review"
            owner: "finance"
            kpi: "ccc"
            due: "30d"
            impact: "working capital"
      - id: R_BAL_001
        name: Receivables outweigh payables
        conditions:
          - metric: ar_to_ap
            op: ">"
            value: 1.30
        recommendation: "Open receivables exceed open payables by a wide margin; liquidity depends on collection speed more than on payment deferral."
        orders:
          - title: "Stress-test the cash plan against late collections"
            owner: "finance"
            kpi: "ar_to_ap"
            due: "14d"
            impact: "liquidity risk"
`
