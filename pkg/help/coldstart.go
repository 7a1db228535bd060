package help

const ColdstartYAML = `# wordreduce Quick Start

strategies:
  flat: "Rank 0 reads every partial map (any rank count)"
  grouped: "Ranks [0, local_capacity) gather strided ranks, rank 0 gathers them"
  partitioned: "Leaders gather partitions of local_capacity ranks, rank 0 gathers the leaders"
  hypercube: "Butterfly pairwise exchange in log2(ranks) rounds (power-of-two ranks only)"

tokenizers:
  boundary: "Word and punctuation runs, case preserved (default)"
  words: "Lowercased words, punctuation stripped, English stopwords dropped"

commands:
  basic_run: |
    wordreduce run a.txt b.txt c.txt d.txt

  pick_strategy: |
    wordreduce run --strategy hypercube --output counts.txt a.txt b.txt c.txt d.txt

  input_list: |
    # One input per line; line i is the input of rank i
    wordreduce run --inputs-file wordcount.config --strategy partitioned --local-capacity 2

  config_file: |
    wordreduce run --config run.yaml

  check_only: |
    wordreduce validate --strategy grouped --local-capacity 3 --inputs-file wordcount.config

  history: |
    wordreduce run --history --strategy flat a.txt b.txt
    wordreduce history list
    wordreduce history show

config_yaml: |
  strategy: partitioned
  local_capacity: 2
  tokenizer: boundary
  encoding: utf-8
  output: counts.txt
  format: tsv
  history: true
  inputs:
    - a.txt
    - b.txt
    - c.txt
    - d.txt

report_line:
  - "stdout: threads<TAB>total<TAB>counting<TAB>reduction (seconds)"
  - "counting: rank 0 start of local phase to its publish"
  - "reduction: rank 0 publish to final mapping"

output_files:
  - "counts.txt: one 'word<TAB>count' line per word, sorted by word"
  - "counts.txt.manifest.yaml: strategy, timings, traffic, per-rank inputs"

error_behavior:
  - "Invalid topology (e.g. hypercube with 6 ranks): rejected before any rank starts"
  - "Unreadable input: every rank stops after the local phase"
  - "Exit codes: 0=success, 1=run failure, 2=invalid configuration"
`
