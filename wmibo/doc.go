/*
Package wmibo reads WMIBO v1.0 files, a line-oriented text format describing
mixed integer and boolean optimization problems: boolean, integer and real
variables, hard and weighted soft clauses, linear constraints that can be
gated by indicator literals, a single linear objective and a few queries.

Reading an instance

An instance is read from any io.Reader:

    f, err := os.Open("model.wmibo")
    if err != nil {
        // ...
    }
    defer f.Close()
    inst, err := wmibo.Load(f)

The following content describes two booleans, an integer variable in [0,10]
and a constraint i1 + 2 b2 <= 5 that must only hold when b1 is true:

    p wmibo 1 2 1 0
    var i 1 [0,10] name=load
    begin ind
    ind b1 => C1
    end
    begin lin
    lc C1 <= 5 : 1 i1 2 b2
    end

Load either returns a fully validated *Instance, or a *FormatError
carrying the line of the first problem and one of the Err* kinds, which can
be tested with errors.Is. Problems that do not prevent reading the instance,
such as header counters that do not match the content of the file, are
reported in Instance.Warnings.

Linear constraints are also available in normalized form: Instance.Rows
returns every constraint as sum(coeff * var) <= rhs, an equality being split
in two rows.

Writing solutions

Solvers report their answer with WriteSolution:

    s OPTIMUM FOUND
    o 13
    v b1=1 b2=0
    v i1=5

ReadSolution parses that output back.
*/
package wmibo
