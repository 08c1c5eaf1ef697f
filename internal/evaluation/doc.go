// Package evaluation defines the prompt evaluation data model: factors,
// findings, synthesis insights and the request/response contract with the
// evaluation service.
//
// It also holds the pure decision logic that sits on top of that model:
// score bands, the operating [Mode], findings reconciliation and the
// APPROVE/REJECT verdict.
package evaluation
