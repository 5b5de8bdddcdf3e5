package ai

// NewGeminiEvaluatorForTest exposes the evaluator constructor that accepts a
// content generator double.
var NewGeminiEvaluatorForTest = newGeminiEvaluator
