package core

// ConstitutionRule is seed content for a governance rule entry.
type ConstitutionRule struct {
	Action   string
	Decision string
	Notes    string
	Priority string
}

// constitutionRules are the rules added by SeedConstitutionRules.
var constitutionRules = []ConstitutionRule{
	{
		Action:   "Board Resolutions — Passing Threshold",
		Decision: "A resolution of the Board is passed if a majority of votes cast is in favour. The chairperson does NOT have a casting vote. (Constitution Schedule 2, clauses 34 & 33)",
		Notes:    "A Director present is presumed to have voted in favour unless they expressly abstain or dissent.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Board Quorum Requirement",
		Decision: "A quorum is a majority of Directors entitled to vote. No business may be transacted without a quorum. If no quorum within 20 minutes, meeting adjourns automatically by 2 working days. (Schedule 2, clauses 27–29)",
		Notes:    "At the adjourned meeting, if still no quorum within 20 minutes, Directors present constitute a quorum.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Written Board Resolutions",
		Decision: "A resolution signed or assented to in writing by ALL Directors entitled to vote is as valid as a resolution passed at a duly convened Board meeting. May be signed in counterparts including by email. A copy must be entered in the minute book. (Schedule 2, clauses 37–39)",
		Notes:    "This enables decisions to be made without a formal meeting if all Directors agree in writing.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Board Meeting Notice Requirements",
		Decision: "At least 2 days' written notice required for Board meetings. In urgent cases, at least 2 business hours' notice is sufficient if the chairperson (or another Director in their absence) deems it necessary. Notice must specify date, time, place and participation method. (Schedule 2, clauses 24–25)",
		Notes:    "Notice can be delivered by hand, email, or to last known address. Irregularity in notice is waived if all Directors attend without protest.",
		Priority: PriorityMedium,
	},
	{
		Action:   "Shareholder Decisions — Ordinary Resolutions",
		Decision: "Ordinary resolutions require a simple majority (>50%) of votes cast. Used for: appointing/removing Directors, approving Director remuneration and certain payments. A written resolution signed by shareholders holding ≥75% of voting rights is valid in lieu of a meeting. (Clause 8.4, s122 Companies Act 1993)",
		Notes:    "Shareholders holding ≥5% of voting rights may requisition a special meeting.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Shareholder Decisions — Special Resolutions (75% threshold)",
		Decision: "The following require approval of shareholders holding ≥75% of voting rights: transferring shares outside pre-emption rights (clause 5.10f); drag-along and tag-along rights triggers. The Companies Act 1993 also requires 75% for altering the constitution and certain major transactions.",
		Notes:    "Tag-along applies when ≥50% of voting rights are being sold. Drag-along applies when ≥75% of voting rights are being sold.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Board Powers vs Shareholder Powers",
		Decision: "The Board manages all business and affairs of the Company and may exercise all Company powers not reserved to Shareholders. Board may delegate powers to committees, individual Directors, employees or other persons — except powers listed in the Second Schedule to the Companies Act 1993. (Clauses 50–53)",
		Notes:    "Shareholder approval required for: Director remuneration beyond expenses (clause 59), liquidation distributions in kind (clause 66), and matters reserved by the Act.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Appointment & Removal of Directors",
		Decision: "Directors appointed or removed by: (a) written notice signed by shareholders holding >50% of voting rights, OR (b) ordinary resolution, OR (c) as provided in any shareholders' agreement. Maximum 7 Directors unless changed by >50% shareholder vote. (Clauses 41–44)",
		Notes:    "Alternate Directors can be appointed by any Director by written notice, subject to majority Board approval.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Interested Director — Conflict of Interest Rules",
		Decision: "A Director who is interested in a transaction MAY still: vote on any matter relating to it, attend and be counted for quorum, sign documents on behalf of the Company. However, the Director must comply with s140 Companies Act 1993 disclosure requirements. (Clauses 57–58)",
		Notes:    "Failure to disclose does not affect validity of the contract or arrangement, but the Director remains personally liable.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Signing Authority — Contracts & Deeds",
		Decision: "A deed on behalf of the Company may be signed by: (a) two or more Directors, OR (b) one Director (or other Board-authorised person) with a witnessed signature, OR (c) one or more attorneys appointed under s181 of the Act. (Clause 65)",
		Notes:    "The Board may appoint attorneys either generally or for specific matters.",
		Priority: PriorityHigh,
	},
	{
		Action:   "Minutes — Keeping Requirements",
		Decision: "The Board must ensure minutes are kept of all Board meeting proceedings. Minutes signed as correct by the chairperson are prima facie evidence of proceedings unless shown to be inaccurate. Written resolutions must also be entered in the minute book. (Schedule 2, clauses 36 & 39)",
		Notes:    "This applies to all Board meetings and written resolutions.",
		Priority: PriorityMedium,
	},
	{
		Action:   "Pre-emptive Rights on Share Transfer",
		Decision: "No shares may be transferred unless pre-emption rights (Schedule 3) have been exhausted — existing shareholders must be offered shares first at the proposed transfer price. Exceptions include: transfers to a Shareholder's own trust, intra-trust transfers, transfers approved in writing by holders of ≥75% voting rights, and drag-along/tag-along transfers. (Clauses 16–25, Schedule 3)",
		Notes:    "Board may refuse or delay registration of a transfer within 10 working days of receipt.",
		Priority: PriorityHigh,
	},
}

// ConstitutionSeed returns a copy of the governance rules used for seeding.
func ConstitutionSeed() []ConstitutionRule {
	return append([]ConstitutionRule(nil), constitutionRules...)
}
