package catalog

// Well-known obfuscation technique tags. The catalogue may introduce further
// ("custom") tags; nothing in the pipeline switches on this set.
const (
	TechniqueBase64         = "base64"
	TechniqueXOR            = "xor"
	TechniqueStringConcat   = "string-concat"
	TechniqueInvokeEval     = "invoke-eval"
	TechniqueCompression    = "compression"
	TechniqueReflectiveLoad = "reflective-load"
	TechniqueDynamicInvoke  = "dynamic-invoke"
	TechniqueScannerBypass  = "scanner-bypass"
	TechniquePolicyBypass   = "policy-bypass"
	TechniqueCharCode       = "char-code"
)

// Finding categories shared by the classifiers.
const (
	CategoryNetwork   = "network"
	CategoryFileOps   = "file-operations"
	CategoryRegistry  = "registry-operations"
	CategoryProcess   = "process-operations"
	CategoryMalicious = "malicious-function"
	CategoryEvasion   = "defense-evasion"
)

// Default returns the built-in signature catalogue. Patterns target the
// scripting-language loaders (PowerShell, cmd, generic shell) that beacon
// payloads are written in.
func Default() *Catalog {
	return &Catalog{
		Obfuscation: []ObfuscationRule{
			{TechniqueBase64, `(?i)frombase64string|[A-Za-z0-9+/]{40,}={0,2}`, 0.80, 12},
			{TechniqueXOR, `(?i)-bxor\s+(0x[0-9a-fA-F]+|\d+)`, 0.70, 10},
			{TechniqueStringConcat, `'[^']{0,40}'\s*\+\s*'|"[^"]{0,40}"\s*\+\s*"`, 0.60, 8},
			{TechniqueInvokeEval, `(?i)\b(iex|invoke-expression)\b`, 0.85, 10},
			{TechniqueCompression, `(?i)gzipstream|deflatestream|io\.compression`, 0.75, 12},
			{TechniqueReflectiveLoad, `(?i)\[reflection\.assembly\]::load|assembly\.load\(`, 0.90, 15},
			{TechniqueDynamicInvoke, `(?i)getdelegateforfunctionpointer|\.getmethod\(|\.invoke\(`, 0.70, 10},
			{TechniqueScannerBypass, `(?i)amsiutils|amsiinitfailed|amsi\.dll`, 0.90, 15},
			{TechniquePolicyBypass, `(?i)-ex(ec)?(utionpolicy)?\s+bypass|set-executionpolicy\s+unrestricted`, 0.85, 10},
			{TechniqueCharCode, `(?i)(\[char\]\s*\d{1,3}\s*[+,]\s*){3,}|(\\x[0-9a-fA-F]{2}){4,}`, 0.65, 8},
		},

		Signatures: []Signature{
			{
				Name:      "cobalt-strike-beacon",
				Framework: "Cobalt Strike",
				Patterns: []string{
					`(?i)\bbeacon\b`,
					`(?i)malleable`,
					`(?i)/pixel\.gif|/submit\.php|/__utm\.gif`,
					`(?i)checkin|stageless`,
				},
				Threshold: 0.25,
			},
			{
				Name:      "metasploit-stager",
				Framework: "Metasploit",
				Patterns: []string{
					`(?i)meterpreter`,
					`(?i)msfvenom|msfconsole`,
					`(?i)reflectiveloader`,
					`(?i)payload/windows`,
				},
				Threshold: 0.25,
			},
			{
				Name:      "empire-agent",
				Framework: "Empire",
				Patterns: []string{
					`(?i)invoke-empire`,
					`(?i)/admin/get\.php|/news\.php|/login/process\.php`,
					`(?i)stagingkey|session-key`,
					`(?i)invoke-obfuscation`,
				},
				Threshold: 0.25,
			},
			{
				Name:      "covenant-grunt",
				Framework: "Covenant",
				Patterns: []string{
					`(?i)\bgrunt\b`,
					`(?i)covenant`,
					`(?i)executestager`,
				},
				Threshold: 0.34,
			},
			{
				Name:      "sliver-implant",
				Framework: "Sliver",
				Patterns: []string{
					`(?i)\bsliver\b`,
					`(?i)implant.*beacon|beacon.*implant`,
				},
				Threshold: 0.5,
			},
			{
				// Not a named framework but the single most common loader
				// shape: fetch remote text over HTTP and evaluate it.
				Name:      "download-cradle",
				Framework: "Generic HTTP Stager",
				Patterns: []string{
					`(?i)downloadstring|downloadfile|downloaddata`,
					`(?i)new-object\s+(system\.)?net\.webclient`,
					`(?i)\biex\b|invoke-expression`,
					`(?i)https?://`,
				},
				Threshold: 0.5,
			},
		},

		SoftPatterns: []SoftPattern{
			{"Cobalt Strike", `(?i)rundll32\.exe.*,\s*start`, 0.2},
			{"Cobalt Strike", `(?i)sleeptime|jitter`, 0.15},
			{"Metasploit", `(?i)virtualalloc.*createthread`, 0.2},
			{"Empire", `(?i)system\.management\.automation`, 0.15},
			{"Generic HTTP Stager", `(?i)hidden.*-nop|-nop.*hidden`, 0.1},
		},

		Network: []Rule{
			{`(?i)new-object\s+(system\.)?net\.webclient`, "WebClient instantiation for HTTP transport", "high", []string{"T1071.001"}},
			{`(?i)\.(downloadstring|downloadfile|downloaddata)\(`, "Remote payload download", "critical", []string{"T1105"}},
			{`(?i)invoke-webrequest|invoke-restmethod|\bcurl\b|\bwget\b`, "HTTP request cmdlet or tool", "high", []string{"T1105"}},
			{`(?i)net\.sockets\.tcpclient|new-object\s+.*tcpclient`, "Raw TCP client", "high", []string{"T1095"}},
			{`(?i)start-bitstransfer`, "BITS transfer", "high", []string{"T1197"}},
			{`(?i)nslookup|resolve-dnsname`, "DNS resolution", "low", []string{"T1071.004"}},
		},

		FileOps: []Rule{
			{`(?i)\[io\.file\]::writeallbytes|set-content|add-content|out-file`, "File write", "medium", []string{"T1105"}},
			{`(?i)remove-item\s|\bdel\b\s+/[fq]`, "File deletion", "medium", []string{"T1070.004"}},
			{`(?i)copy-item\s.*\\startup\\`, "Copy into Startup folder", "high", []string{"T1547.001"}},
			{`(?i)\$env:temp|\$env:appdata|%temp%|%appdata%`, "Staging in user-writable directory", "low", []string{"T1074.001"}},
			{`(?i)get-childitem\s.*-recurse`, "Recursive file enumeration", "low", []string{"T1083"}},
		},

		RegistryOps: []Rule{
			{`(?i)currentversion\\run`, "Run-key persistence", "high", []string{"T1547.001"}},
			{`(?i)set-itemproperty\s.*hk(lm|cu):`, "Registry value modification", "medium", []string{"T1112"}},
			{`(?i)new-itemproperty\s.*hk(lm|cu):`, "Registry value creation", "medium", []string{"T1112"}},
			{`(?i)\breg(\.exe)?\s+add\b`, "reg.exe add", "medium", []string{"T1112"}},
			{`(?i)get-itemproperty\s.*hk(lm|cu):`, "Registry query", "low", []string{"T1012"}},
		},

		ProcessOps: []Rule{
			{`(?i)start-process\s`, "Child process launch", "medium", []string{"T1059.001"}},
			{`(?i)\bcmd(\.exe)?\s*/c\b`, "cmd.exe one-liner", "high", []string{"T1059.003"}},
			{`(?i)\brundll32(\.exe)?\b`, "rundll32 proxy execution", "high", []string{"T1218.011"}},
			{`(?i)\bregsvr32(\.exe)?\b`, "regsvr32 proxy execution", "high", []string{"T1218.010"}},
			{`(?i)\bmshta(\.exe)?\b`, "mshta proxy execution", "high", []string{"T1218.005"}},
			{`(?i)schtasks(\.exe)?\s+/create`, "Scheduled task creation", "high", []string{"T1053.005"}},
			{`(?i)get-process\b|tasklist\b`, "Process enumeration", "low", []string{"T1057"}},
			{`(?i)stop-process\s|taskkill\b`, "Process termination", "medium", []string{"T1489"}},
		},

		Malicious: []Rule{
			{`(?i)\biex\b|invoke-expression`, "Dynamic script evaluation (Invoke-Expression)", "critical", []string{"T1059.001"}},
			{`(?i)downloadstring[\s\S]{0,80}\biex\b|\biex\b[\s\S]{0,80}downloadstring`, "Download-and-evaluate cradle", "critical", []string{"T1059.001", "T1105"}},
			{`(?i)invoke-shellcode|\bshellcode\b`, "Shellcode execution helper", "critical", []string{"T1055"}},
			{`(?i)\[reflection\.assembly\]::load`, "Reflective assembly load", "critical", []string{"T1620"}},
			{`(?i)virtualalloc|writeprocessmemory|createremotethread`, "Process injection primitive", "critical", []string{"T1055"}},
			{`(?i)invoke-mimikatz|mimikatz|sekurlsa`, "Credential dumping tool", "critical", []string{"T1003.001"}},
			{`(?i)add-type\s.*-typedefinition`, "Inline C# compilation", "high", []string{"T1059.001"}},
			{`(?i)frombase64string`, "Base64 payload decoding", "high", []string{"T1140"}},
			{`(?i)get-clipboard`, "Clipboard capture", "medium", []string{"T1115"}},
			{`(?i)\[convert\]::tobase64string.*invoke-webrequest|invoke-webrequest.*tobase64string`, "Encoded exfiltration", "high", []string{"T1048.003"}},
		},

		Evasion: []Rule{
			{`(?i)amsiutils|amsiinitfailed|amsi\.dll`, "AMSI bypass", "critical", []string{"T1562.001"}},
			{`(?i)set-mppreference\s.*-disable|disablerealtimemonitoring`, "Defender tampering", "critical", []string{"T1562.001"}},
			{`(?i)-ex(ec)?(utionpolicy)?\s+bypass|set-executionpolicy\s+unrestricted`, "Execution policy bypass", "high", []string{"T1562.001"}},
			{`(?i)-windowstyle\s+hidden|-w\s+hidden`, "Hidden window execution", "medium", []string{"T1564.003"}},
			{`(?i)-noprofile\b|-nop\b`, "Profile suppression", "low", []string{"T1562.001"}},
			{`(?i)wevtutil\s+cl|clear-eventlog`, "Event log clearing", "high", []string{"T1070.001"}},
		},

		Techniques: map[string]TechniqueInfo{
			"T1003.001": {"OS Credential Dumping: LSASS Memory", "Credential Access"},
			"T1012":     {"Query Registry", "Discovery"},
			"T1048.003": {"Exfiltration Over Unencrypted Protocol", "Exfiltration"},
			"T1053.005": {"Scheduled Task", "Persistence"},
			"T1055":     {"Process Injection", "Defense Evasion"},
			"T1057":     {"Process Discovery", "Discovery"},
			"T1059.001": {"Command and Scripting Interpreter: PowerShell", "Execution"},
			"T1059.003": {"Command and Scripting Interpreter: Windows Command Shell", "Execution"},
			"T1070.001": {"Indicator Removal: Clear Windows Event Logs", "Defense Evasion"},
			"T1070.004": {"Indicator Removal: File Deletion", "Defense Evasion"},
			"T1071.001": {"Application Layer Protocol: Web Protocols", "Command and Control"},
			"T1071.004": {"Application Layer Protocol: DNS", "Command and Control"},
			"T1074.001": {"Data Staged: Local Data Staging", "Collection"},
			"T1083":     {"File and Directory Discovery", "Discovery"},
			"T1095":     {"Non-Application Layer Protocol", "Command and Control"},
			"T1105":     {"Ingress Tool Transfer", "Command and Control"},
			"T1112":     {"Modify Registry", "Defense Evasion"},
			"T1115":     {"Clipboard Data", "Collection"},
			"T1140":     {"Deobfuscate/Decode Files or Information", "Defense Evasion"},
			"T1197":     {"BITS Jobs", "Defense Evasion"},
			"T1218.005": {"System Binary Proxy Execution: Mshta", "Defense Evasion"},
			"T1218.010": {"System Binary Proxy Execution: Regsvr32", "Defense Evasion"},
			"T1218.011": {"System Binary Proxy Execution: Rundll32", "Defense Evasion"},
			"T1489":     {"Service Stop", "Impact"},
			"T1547.001": {"Boot or Logon Autostart Execution: Registry Run Keys", "Persistence"},
			"T1562.001": {"Impair Defenses: Disable or Modify Tools", "Defense Evasion"},
			"T1564.003": {"Hide Artifacts: Hidden Window", "Defense Evasion"},
			"T1620":     {"Reflective Code Loading", "Defense Evasion"},
		},
	}
}
