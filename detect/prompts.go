package detect

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/brunobiangulo/clamba/process"
)

// ContractType hints which family of business processes a contract is
// likely to contain. It only influences prompt phrasing; detection itself
// is type-agnostic.
type ContractType string

const (
	ContractLogistics ContractType = "logistics"
	ContractSales     ContractType = "sales"
	ContractService   ContractType = "service"
	ContractAuto      ContractType = "auto" // no hint, let the model decide
)

// maxContractChars truncates very long contracts before prompting. Keeps
// the prompt inside small local-model context windows.
const maxContractChars = 6000

// typeExamples gives the model a few canonical processes per contract
// family. Only the families with well-understood shapes get examples.
var typeExamples = map[ContractType]string{
	ContractLogistics: `EXAMPLE LOGISTICS PROCESSES:
- Goods reception process
- Handling/storage process
- Customs/administrative process
- Invoicing/payment process`,
	ContractSales: `EXAMPLE SALES PROCESSES:
- Product preparation process
- Installment payment process
- Delivery/acceptance process
- Warranty/after-sales process`,
	ContractService: `EXAMPLE SERVICE PROCESSES:
- Needs qualification process
- Service execution process
- Deliverable validation process
- Invoicing process`,
}

const detectionPromptTemplate = `You are a SENIOR EXPERT in CONTRACT ANALYSIS and PROCESS AUTOMATION.

MISSION: Analyze this contract and identify the DISTINCT business processes that can be automated separately.

CONTRACT TO ANALYZE:
%s

METHODOLOGY:
1. READ the whole contract
2. IDENTIFY the DISTINCT and INDEPENDENT business processes
3. EACH process = a series of logically related actions
4. SEPARATE processes that can run in parallel
5. IGNORE purely legal clauses (termination, jurisdiction, etc.)

%s
RULES:
- Minimum %d processes, maximum %d processes
- Each process has at most %d steps
- Processes must be ACTIONABLE and MEASURABLE
- Adapted to this specific contract
- Steps are logical and sequential

%sSTRICT JSON FORMAT:
[
  {
    "id": "01",
    "name": "Business process name",
    "description": "Detailed process description",
    "steps": ["action_1", "action_2", "action_3", "action_4"],
    "responsible_party": "Who is responsible",
    "triggers": "When this process starts"
  }
]

ANALYZE THE CONTRACT AND IDENTIFY THE DISTINCT BUSINESS PROCESSES:`

// BuildDetectionPrompt assembles the process-detection prompt for one
// contract.
func BuildDetectionPrompt(contractText string, hint ContractType, customInstructions string, opts Options) string {
	if len(contractText) > maxContractChars {
		cut := maxContractChars
		for cut > 0 && !utf8.RuneStart(contractText[cut]) {
			cut--
		}
		contractText = contractText[:cut] + "..."
	}

	examples := ""
	if ex, ok := typeExamples[hint]; ok {
		examples = ex + "\n"
	}

	custom := ""
	if customInstructions != "" {
		custom = "SPECIFIC INSTRUCTIONS: " + customInstructions + "\n\n"
	}

	return fmt.Sprintf(detectionPromptTemplate,
		contractText, examples,
		opts.MinProcesses, opts.MaxProcesses, opts.MaxStepsPerProcess,
		custom)
}

const dependencyPromptTemplate = `You are an EXPERT in BUSINESS PROCESS ORCHESTRATION.

MISSION: Analyze the logical dependencies between these processes to build an optimal DAG.

IDENTIFIED BUSINESS PROCESSES:
%s

DEPENDENCY RULES - NO CYCLES ALLOWED:
1. Process B depends on A IF AND ONLY IF B cannot start before A is COMPLETED
2. Analyze the actual OPERATIONAL logic of the contract
3. CYCLES ARE FORBIDDEN: if A depends on B, then B can NEVER depend on A
4. VERIFY that no process depends on itself
5. MAXIMIZE PARALLEL execution when possible
6. When in doubt about a dependency, PREFER independence

EXACT JSON FORMAT:
{
  "01": [],
  "02": ["01"],
  "03": ["01"],
  "04": ["02", "03"]
}

ANALYZE THE LOGICAL DEPENDENCIES:`

// BuildDependencyPrompt assembles the dependency-analysis prompt over the
// already-detected processes.
func BuildDependencyPrompt(processes []process.Process) string {
	var info strings.Builder
	for _, p := range processes {
		fmt.Fprintf(&info, "PROCESS %s: %s\n", p.ID, p.Name)
		fmt.Fprintf(&info, "   Description: %s\n", p.Description)
		fmt.Fprintf(&info, "   Steps: %s\n", strings.Join(p.Steps, ", "))
		fmt.Fprintf(&info, "   Responsible: %s\n", p.ResponsibleParty)
		fmt.Fprintf(&info, "   Trigger: %s\n\n", p.Triggers)
	}
	return fmt.Sprintf(dependencyPromptTemplate, info.String())
}
