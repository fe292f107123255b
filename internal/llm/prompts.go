package llm

import "fmt"

const reasoningTracePromptFormat = `/think Given the following coding problem, provide only the reasoning trace - your step-by-step thought process to understand and approach the problem. Do NOT provide the actual solution or code.

Problem:
%s

Please provide your reasoning trace - the logical steps you would take to understand and approach this problem:`

const translationContextFormat = `The following is a reasoning trace for a coding problem. Please translate it accurately to %s while maintaining the technical terminology and logical flow. Make sure not to use tough %s words. Instead use simple %s and use english words wherever technical terms are used.

%s`

const translationPromptFormat = `Translate the following English text to %s. Maintain the technical terminology and logical flow. Provide only the %s translation without any additional text or explanations.

English text:
%s

%s translation:`

func buildReasoningTracePrompt(content string) string {
	return fmt.Sprintf(reasoningTracePromptFormat, content)
}

func buildTranslationPrompt(targetLanguage string, traceText string) string {
	contextualText := fmt.Sprintf(translationContextFormat, targetLanguage, targetLanguage, targetLanguage, traceText)
	return fmt.Sprintf(translationPromptFormat, targetLanguage, targetLanguage, contextualText, targetLanguage)
}
