/*
Package context keeps the message state of a run and rewrites it when the
agent commits an answer.

# Session

Session holds two logs. The agent-visible log is what the model sees on its
next turn; the middleware may replace it with a rewritten snapshot. The
all_tool_calls side channel records every tool call ever appended, keyed by
call id, and is never rewritten, so trajectory evaluators see the history as
the agent produced it.

# Commit middleware

CommitMiddleware runs between turns. When the log contains an assistant turn
calling store_answer or store_deliverable, every earlier calculation-class
exchange is removed: turns that only call calculation tools are dropped
together with their tool results, and mixed turns keep their other calls.
The commit turn and all later messages are kept verbatim. Rewrite is
idempotent, and Apply swaps the visible log under the session lock so a
rewrite is observed entirely or not at all.

# Token accounting

Every rewrite reports tokens before and after, counted with tiktoken
(cl100k_base) when the encoding can be loaded and estimated otherwise.
*/
package context
