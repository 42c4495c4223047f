package service

const reviewPrompt = `Original query: %s

Here are the responses from other models (anonymized):

%s

Please rank these responses from best to worst based on accuracy, completeness, and insight.
Provide a brief justification for your ranking.

Format your response as:
RANKING: [Response X, Response Y, ...]
JUSTIFICATION: Your explanation here`

const chairmanPrompt = `You are the Chairman of the LLM Council.

Original query: %s

Council member responses:
%s

Peer reviews:
%s

Based on all the responses and peer reviews, provide a comprehensive, accurate, and well-structured final answer to the original query.
Synthesize the best insights from all responses while correcting any errors or misconceptions.`
